package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Turn detection modes understood by the speech session.
const (
	TurnDetectionServerVAD = "server_vad"
	TurnDetectionManual    = "manual"
)

// AgentProfile describes how the voice agent behaves on a call. Which side
// speaks first, the farewell phrase list and the closing lines vary per
// deployment, so all of it lives here instead of in code.
type AgentProfile struct {
	Instructions    string   `yaml:"instructions" validate:"required"`
	Voice           string   `yaml:"voice" validate:"required"`
	Greeting        string   `yaml:"greeting"`
	QuietMessage    string   `yaml:"quiet_message"`
	FarewellMessage string   `yaml:"farewell_message"`
	FarewellPhrases []string `yaml:"farewell_phrases" validate:"dive,required"`
	TurnDetection   string   `yaml:"turn_detection" validate:"oneof=server_vad manual"`
}

// DefaultAgentProfile is the profile used when no file is configured.
func DefaultAgentProfile() AgentProfile {
	return AgentProfile{
		Instructions: "Du er en venlig telefonassistent. Tal kort og naturligt dansk. " +
			"Find ud af kundens navn, hvornår kunden er tilgængelig, og om der er særlige bemærkninger. " +
			"Når samtalen er færdig, siger du farvel.",
		Voice:           "alloy",
		Greeting:        "Hils kort på kunden og spørg, hvad du kan hjælpe med.",
		QuietMessage:    "Sig kort, at forbindelsen virker stille, og at du lægger på nu. Sig farvel.",
		FarewellMessage: "Tak kunden for samtalen og afslut høfligt.",
		FarewellPhrases: []string{"farvel", "hej hej", "tak for i dag", "vi ses", "på gensyn"},
		TurnDetection:   TurnDetectionServerVAD,
	}
}

// LoadAgentProfile reads a YAML profile from path. Fields missing from the
// file keep their defaults. An empty path returns the defaults.
func LoadAgentProfile(path string) (AgentProfile, error) {
	profile := DefaultAgentProfile()
	if path == "" {
		return profile, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return AgentProfile{}, fmt.Errorf("failed to read agent profile %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &profile); err != nil {
		return AgentProfile{}, fmt.Errorf("failed to parse agent profile %s: %w", path, err)
	}
	return profile, nil
}

// applyEnv lets single fields be overridden without shipping a profile file.
func (p *AgentProfile) applyEnv() {
	if v := os.Getenv("AGENT_VOICE"); v != "" {
		p.Voice = v
	}
	if v, ok := os.LookupEnv("AGENT_GREETING"); ok {
		p.Greeting = v
	}
	if v := os.Getenv("TURN_DETECTION"); v != "" {
		p.TurnDetection = v
	}
	if v := os.Getenv("FAREWELL_PHRASES"); v != "" {
		p.FarewellPhrases = splitList(v)
	}
}
