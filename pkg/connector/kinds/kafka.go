package kinds

import (
	"github.com/IBM/sarama"

	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/params"
)

// KafkaConfig builds the sarama producer configuration described by p.
// The returned config has passed sarama's own validation.
func KafkaConfig(p *params.Table) (*sarama.Config, []string, error) {
	brokers, err := stringList(p, "brokers")
	if err != nil {
		return nil, nil, err
	}
	if len(brokers) == 0 {
		return nil, nil, errors.New(errors.ErrorTypeConfig, "'brokers' is required")
	}

	config := sarama.NewConfig()
	config.ClientID = "wpgen"

	version, err := stringParam(p, "version", "")
	if err != nil {
		return nil, nil, err
	}
	if version != "" {
		v, err := sarama.ParseKafkaVersion(version)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid kafka version")
		}
		config.Version = v
	}

	acks, err := stringParam(p, "acks", "all")
	if err != nil {
		return nil, nil, err
	}
	switch acks {
	case "all", "-1":
		config.Producer.RequiredAcks = sarama.WaitForAll
	case "1":
		config.Producer.RequiredAcks = sarama.WaitForLocal
	case "0":
		config.Producer.RequiredAcks = sarama.NoResponse
	default:
		return nil, nil, errors.Newf(errors.ErrorTypeConfig, "'acks' must be all, -1, 0 or 1, got '%s'", acks)
	}

	compression, err := stringParam(p, "compression", "none")
	if err != nil {
		return nil, nil, err
	}
	switch compression {
	case "gzip":
		config.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		config.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		config.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		config.Producer.Compression = sarama.CompressionZSTD
	case "none", "":
		config.Producer.Compression = sarama.CompressionNone
	default:
		return nil, nil, errors.Newf(errors.ErrorTypeConfig, "unknown kafka compression '%s'", compression)
	}

	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	if err := config.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid kafka config")
	}
	return config, brokers, nil
}

// CheckKafkaSink requires brokers and a topic
func CheckKafkaSink(p *params.Table) error {
	if _, _, err := KafkaConfig(p); err != nil {
		return err
	}
	if !nonEmptyString(p, "topic") {
		return errors.New(errors.ErrorTypeConfig, "'topic' is required")
	}
	return nil
}

// CheckKafkaSource requires brokers, a topic and a consumer group
func CheckKafkaSource(p *params.Table) error {
	if err := CheckKafkaSink(p); err != nil {
		return err
	}
	if !nonEmptyString(p, "group") {
		return errors.New(errors.ErrorTypeConfig, "'group' is required")
	}
	return nil
}
