package mock_telephony

import (
	"encoding/json"
	"os"
	"voice-campaign-api/application/ports/outbound"
)

type ScenarioReader interface {
	Read(fileName string) (Scenario, error)
}

type fileScenarioReader struct {
	logger outbound.LoggerPort
}

func NewFileScenarioReader(logger outbound.LoggerPort) ScenarioReader {
	return &fileScenarioReader{
		logger: logger,
	}
}

// Read loads a scenario file. An empty name selects DefaultScenario, and a
// file without a default script inherits the built-in one.
func (f *fileScenarioReader) Read(fileName string) (Scenario, error) {
	if fileName == "" {
		return DefaultScenario, nil
	}
	scenario, err := f.readJSONFile(fileName)
	if err != nil {
		return Scenario{}, err
	}
	if len(scenario.Default) == 0 {
		scenario.Default = DefaultScenario.Default
	}
	return scenario, nil
}

func (f *fileScenarioReader) readJSONFile(fileName string) (Scenario, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return Scenario{}, err
	}
	defer func(file *os.File) {
		err := file.Close()
		if err != nil {
			f.logger.Error(err, "failed to close file")
		}
	}(file)

	var scenario Scenario
	if err := json.NewDecoder(file).Decode(&scenario); err != nil {
		f.logger.Error(err, "failed to decode json")
		return Scenario{}, err
	}

	return scenario, nil
}
