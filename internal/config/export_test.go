package config

func GetEnvAsBool(key string, defaultValue bool) bool {
	return getEnvAsBool(key, defaultValue)
}

func GetEnvAsInt(key string, defaultValue int) int {
	return getEnvAsInt(key, defaultValue)
}

func GetEnvWithDefault(key, defaultValue string) string {
	return getEnvWithDefault(key, defaultValue)
}

func AllNonEmpty(keyValues map[string]string) error {
	return allNonEmpty(keyValues)
}

func AllNumbers(keyValues map[string]string) error {
	return allNumbers(keyValues)
}
