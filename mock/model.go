package mock_telephony

type ScenarioStep struct {
	State string `json:"state"`
	// Delay is in milliseconds, measured from the previous step.
	Delay int `json:"delay"`
}

// Scenario scripts the lifecycle of simulated calls. Numbers overrides the
// default script per destination; Rejected numbers fail at origination.
type Scenario struct {
	Default  []ScenarioStep            `json:"default"`
	Numbers  map[string][]ScenarioStep `json:"numbers"`
	Rejected []string                  `json:"rejected"`
}

var DefaultScenario = Scenario{
	Default: []ScenarioStep{
		{State: "queued", Delay: 0},
		{State: "ringing", Delay: 300},
		{State: "in-progress", Delay: 1200},
		{State: "completed", Delay: 4000},
	},
}

func (s Scenario) StepsFor(number string) []ScenarioStep {
	if steps, ok := s.Numbers[number]; ok {
		return steps
	}
	return s.Default
}

func (s Scenario) Rejects(number string) bool {
	for _, rejected := range s.Rejected {
		if rejected == number {
			return true
		}
	}
	return false
}

type SimulatedCall struct {
	CallSid   string         `json:"call_sid"`
	AttemptID string         `json:"attempt_id"`
	To        string         `json:"to"`
	MediaURL  string         `json:"media_url"`
	Steps     []ScenarioStep `json:"steps"`
	Delivered int            `json:"delivered"`
}
