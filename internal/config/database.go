package config

import "fmt"

// DatabaseURL returns the connection string for the pgvector backend. With
// database_id set it reads DATABASE_URL_<ID>, so one environment can carry
// several databases; otherwise it reads database_url_env.
func (i IndexConfig) DatabaseURL(getenv func(string) string) (string, error) {
	key := i.DatabaseURLEnv
	if i.DatabaseID != "" {
		key = fmt.Sprintf("DATABASE_URL_%s", i.DatabaseID)
	}
	url := getenv(key)
	if url == "" {
		return "", fmt.Errorf("no database URL found for %s", key)
	}
	return url, nil
}
