package buildcfg

// MissingPathHelp is printed when no CIRCT installation is configured.
const MissingPathHelp = `The $CIRCT_PATH environment variable must be defined.
You can also set it in a cirrus.toml file at the root of your project.
For an absolute path to the CIRCT installation:

  [circt]
  path = "/path/to/circt"

A relative path is resolved against the directory holding cirrus.toml:

  [circt]
  path = "../circt/build"
`

// Static libraries linked into the native backend, dependents first.
var (
	CIRCTLibraries = []string{
		"CIRCTSupport",
		"CIRCTTransforms",
		"CIRCTHW",
		"CIRCTCAPIHWArith",
		"CIRCTHWArith",
		"CIRCTHWArithToHW",
		"CIRCTPipelineToHW",
		"CIRCTCAPIHW",
		"CIRCTHWTransforms",
		"CIRCTHWToLLVM",
		"CIRCTHandshakeToHW",
		"CIRCTCAPIComb",
		"CIRCTComb",
		"CIRCTCombToLLVM",
		"CIRCTSeq",
		"CIRCTCAPISeq",
		"CIRCTSeqTransforms",
		"CIRCTFSM",
		"CIRCTCAPIFSM",
		"CIRCTFSMTransforms",
		"CIRCTFSMToSV",
		"CIRCTSV",
		"CIRCTCAPISV",
		"CIRCTSVTransforms",
		"CIRCTExportVerilog",
		"CIRCTCAPIExportVerilog",
		"CIRCTCAPIFIRRTL",
		"CIRCTFIRRTL",
		"CIRCTExportChiselInterface",
		"CIRCTFIRRTLToHW",
		"CIRCTFIRRTLTransforms",
	}

	MLIRLibraries = []string{
		"MLIRSupport",
		"MLIRLLVMCommonConversion",
		"MLIRIR",
		"MLIRDialectUtils",
		"MLIRAnalysis",
		"MLIRCAPIIR",
		"MLIRCallInterfaces",
		"MLIRCAPIControlFlow",
		"MLIRCAPIFunc",
		"MLIRControlFlowDialect",
		"MLIRControlFlowInterfaces",
		"MLIRLoopLikeInterface",
		"MLIRFuncDialect",
		"MLIRFuncTransforms",
		"MLIRInferTypeOpInterface",
		"MLIRInferIntRangeInterface",
		"MLIRInferIntRangeCommon",
		"MLIRViewLikeInterface",
		"MLIRShapedOpInterfaces",
		"MLIRPDLToPDLInterp",
		"MLIRPDLDialect",
		"MLIRPDLInterpDialect",
		"MLIRParser",
		"MLIRAsmParser",
		"MLIRBytecodeReader",
		"MLIRBytecodeWriter",
		"MLIRPass",
		"MLIRRewrite",
		"MLIRSideEffectInterfaces",
		"MLIRTransformUtils",
		"MLIRTransforms",
		"MLIRMemRefDialect",
		"MLIRMemRefTransforms",
		"MLIRMemRefTransformOps",
		"MLIRArithTransforms",
		"MLIRArithDialect",
		"MLIRArithUtils",
		"MLIRAffineDialect",
		"MLIRAffineUtils",
		"MLIRAffineTransformOps",
		"MLIRRuntimeVerifiableOpInterface",
	}

	// ExportLibraries provide the llvm dialect and its translation to LLVM
	// IR.
	ExportLibraries = []string{
		"MLIRCAPIRegisterEverything",
		"MLIRCAPITarget",
		"MLIRCAPILLVM",
		"MLIRToLLVMIRTranslationRegistration",
		"MLIRTargetLLVMIRExport",
		"MLIRLLVMToLLVMIRTranslation",
		"MLIRBuiltinToLLVMIRTranslation",
		"MLIRLLVMIRTransforms",
		"MLIRLLVMDialect",
		"MLIRTranslateLib",
	}

	LLVMLibraries = []string{
		"LLVMCore",
		"LLVMTargetParser",
		"LLVMBinaryFormat",
		"LLVMRemarks",
		"LLVMBitstreamReader",
		"LLVMDemangle",
		"LLVMSupport",
	}
)
