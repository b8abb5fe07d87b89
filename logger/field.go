package logger

type Field struct {
	Key   string
	Value interface{}
}

func Pipeline(name string) Field {
	return Field{
		Key:   "pipeline",
		Value: name,
	}
}

func Middleware(name string) Field {
	return Field{
		Key:   "middleware",
		Value: name,
	}
}

func Error(err error) Field {
	return Field{
		Key:   "error",
		Value: err,
	}
}

// Fields folds fs into the map form Logger.Log takes.
func Fields(fs ...Field) map[string]interface{} {
	m := make(map[string]interface{}, len(fs))
	for _, f := range fs {
		m[f.Key] = f.Value
	}
	return m
}
