package generation

import "context"

// Role identifies the author of a history message sent to the generation
// backend.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one history entry in a generation request.
type Message struct {
	Role Role
	Text string
}

// Exchange is a prior prompt/response pair supplied as context. An empty
// AIResponse is valid context (a swallowed generation failure persists as
// "").
type Exchange struct {
	UserPrompt string
	AIResponse string
}

// Messages expands the exchange into its user/model message pair.
func (e Exchange) Messages() [2]Message {
	return [2]Message{
		{Role: RoleUser, Text: e.UserPrompt},
		{Role: RoleModel, Text: e.AIResponse},
	}
}

// Generator is the external generation collaborator: a black-box function
// from prompt plus ordered history to text. Implementations may return an
// error or an empty string; the Gateway normalizes both.
type Generator interface {
	Complete(ctx context.Context, prompt string, history []Message) (string, error)
	SummarizeTitle(ctx context.Context, prompt string) (string, error)
}

// Quota gates outbound generation requests against the shared rate limit.
type Quota interface {
	Acquire(ctx context.Context) error
}
