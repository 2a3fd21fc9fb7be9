package wasmgen

// WebAssembly binary format magic number and version.
const (
	Magic   uint32 = 0x6D736100
	Version uint32 = 0x01
)

// Section IDs used by the generator, in the order they are written.
const (
	SectionCustom   byte = 0
	SectionType     byte = 1
	SectionImport   byte = 2
	SectionFunction byte = 3
	SectionExport   byte = 7
	SectionCode     byte = 10
)

const (
	KindFunc     byte = 0
	FuncTypeByte byte = 0x60

	// name section subsection holding function names
	nameSubsectionFunctions byte = 1
)

// ValType is a core value type encoding.
type ValType byte

const (
	ValI32 ValType = 0x7F
	ValI64 ValType = 0x7E
	ValF32 ValType = 0x7D
	ValF64 ValType = 0x7C
)

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	}
	return "unknown"
}

// Opcodes emitted by the generator.
const (
	OpEnd      byte = 0x0B
	OpReturn   byte = 0x0F
	OpCall     byte = 0x10
	OpLocalGet byte = 0x20
	OpLocalSet byte = 0x21

	OpI32Const byte = 0x41
	OpI64Const byte = 0x42
	OpF32Const byte = 0x43
	OpF64Const byte = 0x44

	OpI32Eq byte = 0x46
	OpI32Ne byte = 0x47
	OpI64Eq byte = 0x51
	OpI64Ne byte = 0x52
	OpF32Eq byte = 0x5B
	OpF32Ne byte = 0x5C
	OpF64Eq byte = 0x61
	OpF64Ne byte = 0x62
)
