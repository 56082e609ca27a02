package service

const (
	MinTrainingRecords  = 10     // mínimo para poder separar entrenamiento y prueba
	MaxPredictBatch     = 10_000 // máximo de solicitudes por lote de predicción
	DefaultTestFraction = 0.2
	DefaultSplitSeed    = 42

	// Umbral de probabilidad para la clase Eligible
	DecisionThreshold = 0.5

	// Confianza informada cuando una regla de negocio cambia la etiqueta del modelo
	RuleConfidence = 1.0

	cacheKeyPrefix = "eligibility:score:"
)
