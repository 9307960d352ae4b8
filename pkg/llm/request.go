package llm

// Message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ChatRequest is a chat-completion request.
type ChatRequest struct {
	Model      string        `json:"model"`
	Messages   []ChatMessage `json:"messages"`
	Tools      []Tool        `json:"tools,omitempty"`
	ToolChoice *ToolChoice   `json:"tool_choice,omitempty"`
}

// ChatMessage is a single message of the conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool declares a function the model may (or must) call.
type Tool struct {
	Type     string       `json:"type"` // "function"
	Function FunctionSpec `json:"function"`
}

// FunctionSpec describes a callable function and its JSON schema parameters.
type FunctionSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolChoice forces the model to call a specific function.
type ToolChoice struct {
	Type     string           `json:"type"` // "function"
	Function ToolChoiceTarget `json:"function"`
}

// ToolChoiceTarget names the forced function.
type ToolChoiceTarget struct {
	Name string `json:"name"`
}

// FunctionTool builds a function tool declaration.
func FunctionTool(name, description string, parameters map[string]any) Tool {
	return Tool{
		Type:     "function",
		Function: FunctionSpec{Name: name, Description: description, Parameters: parameters},
	}
}

// ForceFunction builds a tool_choice that requires calling name.
func ForceFunction(name string) *ToolChoice {
	return &ToolChoice{Type: "function", Function: ToolChoiceTarget{Name: name}}
}
