package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/filemill/internal/flagx"
	"github.com/dmitrijs2005/filemill/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON config
// files. It uses timex.Duration for interval fields, which allows parsing
// both string values such as "1s" and integer nanoseconds. After
// unmarshalling, non-zero fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	BlobBackend           string         `json:"blob_backend"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
	AzureAccount          string         `json:"azure_account"`
	AzureKey              string         `json:"azure_key"`
	FilesContainer        string         `json:"files_container"`
	OutputsContainer      string         `json:"outputs_container"`
	RequestQueue          string         `json:"request_queue"`
	CompletionQueue       string         `json:"completion_queue"`
	DeadLetterQueue       string         `json:"dead_letter_queue"`
	PollInterval          timex.Duration `json:"poll_interval"`
	VisibilityTimeout     timex.Duration `json:"visibility_timeout"`
	MaxDeliveries         int            `json:"max_deliveries"`
	WorkerCount           int            `json:"worker_count"`
	DispatchTimeout       timex.Duration `json:"dispatch_timeout"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config flags; when
// neither is set, no JSON file is loaded. An unreadable or invalid file
// panics, matching the flag-parsing behavior.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, v timex.Duration) {
		if v.Duration != 0 {
			*dst = v.Duration
		}
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.TokenValidityDuration, c.TokenValidityDuration)
	setString(&config.BlobBackend, c.BlobBackend)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.AzureAccount, c.AzureAccount)
	setString(&config.AzureKey, c.AzureKey)
	setString(&config.FilesContainer, c.FilesContainer)
	setString(&config.OutputsContainer, c.OutputsContainer)
	setString(&config.RequestQueue, c.RequestQueue)
	setString(&config.CompletionQueue, c.CompletionQueue)
	setString(&config.DeadLetterQueue, c.DeadLetterQueue)
	setDuration(&config.PollInterval, c.PollInterval)
	setDuration(&config.VisibilityTimeout, c.VisibilityTimeout)
	setDuration(&config.DispatchTimeout, c.DispatchTimeout)
	if c.MaxDeliveries != 0 {
		config.MaxDeliveries = c.MaxDeliveries
	}
	if c.WorkerCount != 0 {
		config.WorkerCount = c.WorkerCount
	}
}
