package adapter

import (
	"os"
)

// Mode represents the runtime mode of the worker
type Mode int

const (
	ModeUnknown Mode = iota
	ModeLambda
	ModeHTTPServer
)

// LambdaFunctionNameEnv is set by the Lambda runtime in every function.
const LambdaFunctionNameEnv = "AWS_LAMBDA_FUNCTION_NAME"

func (m Mode) String() string {
	switch m {
	case ModeLambda:
		return "lambda"
	case ModeHTTPServer:
		return "http"
	default:
		return "unknown"
	}
}

// DetectMode reports ModeLambda when running inside AWS Lambda, otherwise ModeHTTPServer.
func DetectMode() Mode {
	if os.Getenv(LambdaFunctionNameEnv) != "" {
		return ModeLambda
	}
	return ModeHTTPServer
}
