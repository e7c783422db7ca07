package llm

import "strings"

// Name identifies a supported backend.
type Name string

const (
	ProviderOpenAI    Name = "openai"
	ProviderAnthropic Name = "anthropic"
	ProviderCohere    Name = "cohere"
	ProviderDeepSeek  Name = "deepseek"
	ProviderOllama    Name = "ollama"
	ProviderGoogle    Name = "google"
)

// Env is a snapshot of the environment variables provider autodetection
// reads. Callers build this from os.Environ() (or a config layer); passing
// it explicitly keeps Autodetect a pure function, testable by enumeration.
type Env map[string]string

// Autodetect picks a backend using the priority chain: an explicit
// selection wins outright; failing that, a provider-specific API key in
// the environment; failing that, a recognizable pattern in LLM_BASE_URL;
// failing that, a recognizable prefix on LLM_API_KEY; and OpenAI as the
// default when nothing else matches.
func Autodetect(explicit Name, env Env) Name {
	if explicit != "" {
		return explicit
	}
	if name, ok := detectByEnvKey(env); ok {
		return name
	}
	if name, ok := detectByBaseURL(env["LLM_BASE_URL"]); ok {
		return name
	}
	if name, ok := detectByKeyPrefix(env["LLM_API_KEY"]); ok {
		return name
	}
	return ProviderOpenAI
}

// envKeyPrecedence lists provider-specific key variables in the order they
// are checked — more specific vendor keys ahead of the generic one.
var envKeyPrecedence = []struct {
	key  string
	name Name
}{
	{"ANTHROPIC_API_KEY", ProviderAnthropic},
	{"DEEPSEEK_API_KEY", ProviderDeepSeek},
	{"DASHSCOPE_API_KEY", ProviderDeepSeek}, // DashScope speaks the DeepSeek-compatible text-mode wire format
	{"COHERE_API_KEY", ProviderCohere},
	{"GOOGLE_API_KEY", ProviderGoogle},
	{"GEMINI_API_KEY", ProviderGoogle},
	{"OLLAMA_HOST", ProviderOllama},
	{"OPENAI_API_KEY", ProviderOpenAI},
}

func detectByEnvKey(env Env) (Name, bool) {
	for _, candidate := range envKeyPrecedence {
		if v, ok := env[candidate.key]; ok && v != "" {
			return candidate.name, true
		}
	}
	return "", false
}

var baseURLPatterns = []struct {
	substr string
	name   Name
}{
	{"anthropic", ProviderAnthropic},
	{"dashscope", ProviderDeepSeek},
	{"deepseek", ProviderDeepSeek},
	{"cohere", ProviderCohere},
	{"generativelanguage", ProviderGoogle},
	{"ollama", ProviderOllama},
	{"11434", ProviderOllama}, // ollama's default local port
	{"openai", ProviderOpenAI},
}

func detectByBaseURL(url string) (Name, bool) {
	if url == "" {
		return "", false
	}
	lower := strings.ToLower(url)
	for _, p := range baseURLPatterns {
		if strings.Contains(lower, p.substr) {
			return p.name, true
		}
	}
	return "", false
}

func detectByKeyPrefix(key string) (Name, bool) {
	switch {
	case strings.HasPrefix(key, "sk-ant-"):
		return ProviderAnthropic, true
	case strings.HasPrefix(key, "sk-"):
		return ProviderOpenAI, true
	case key != "":
		return "", false
	default:
		return "", false
	}
}
