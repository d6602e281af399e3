package params

import "os"

type InfluxDBConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// DefaultInfluxDBConfig reads INFLUXDB_* from the environment.
// An empty URL disables export.
func DefaultInfluxDBConfig() *InfluxDBConfig {
	return &InfluxDBConfig{
		URL:    os.Getenv("INFLUXDB_URL"),
		Token:  os.Getenv("INFLUXDB_TOKEN"),
		Org:    os.Getenv("INFLUXDB_ORG"),
		Bucket: os.Getenv("INFLUXDB_BUCKET"),
	}
}

func (c *InfluxDBConfig) Enabled() bool {
	return c != nil && c.URL != ""
}

type S3Config struct {
	Region string
	Bucket string
	Prefix string
}

// DefaultS3Config reads AWS_REGION and AWS_BUCKETNAME. Credentials come
// from the usual AWS environment and shared config.
func DefaultS3Config() *S3Config {
	return &S3Config{
		Region: os.Getenv("AWS_REGION"),
		Bucket: os.Getenv("AWS_BUCKETNAME"),
		Prefix: "tempd",
	}
}

func (c *S3Config) Enabled() bool {
	return c != nil && c.Bucket != ""
}
