// Package runner executes translated modules and their harness wrappers.
//
// A module produced by package wasmgen is loaded into an engine together
// with a HostRegistry that supplies its imports. Harness wrappers take no
// arguments, so running a script is a matter of calling each wrapper in
// order:
//
//	e, err := runner.New(ctx, nil)
//	if err != nil {
//		return err
//	}
//	defer e.Close(ctx)
//
//	hosts := runner.NewHostRegistry()
//	hosts.RegisterSpectest(os.Stdout)
//	results, err := e.Run(ctx, bin, hosts, "Invoke", "AssertEq")
//
// The default engine is wazero. Building with the wasmtime tag adds a
// wasmtime-backed engine selected with Config.Engine = "wasmtime".
package runner
