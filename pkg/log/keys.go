package log

// Structured logging keys.
const (
	NameKey       = "logger"
	ModelNameKey  = "model"
	ComponentKey  = "component"
	OperationKey  = "operation"
	PhaseKey      = "phase"
	SamplesKey    = "samples"
	FeaturesKey   = "features"
	PredsKey      = "predictions"
	DurationMsKey = "duration_ms"
	IterationsKey = "iterations"
	SessionKey    = "session"
	TargetKey     = "target"
)

// Operation values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationEvaluate  = "evaluate"
	OperationLoad      = "load"
)

// Phase values.
const (
	PhaseTraining   = "training"
	PhaseInference  = "inference"
	PhaseIngestion  = "ingestion"
	PhaseEvaluation = "evaluation"
)
