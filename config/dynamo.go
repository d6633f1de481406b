package config

type DynamoConfig struct {
	TableName  string
	TtlMinutes int
}

// Enabled reports whether attempts are mirrored to DynamoDB.
func (c *DynamoConfig) Enabled() bool {
	return c.TableName != ""
}

func GetDynamoConfig() (*DynamoConfig, error) {
	ttlMinutes, err := getIntEnv("DYNAMO_TTL_MINUTES", 7*24*60)
	if err != nil {
		return nil, err
	}

	return &DynamoConfig{
		TableName:  getEnvOrDefault("DYNAMO_TABLE_NAME", ""),
		TtlMinutes: ttlMinutes,
	}, nil
}
