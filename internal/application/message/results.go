package message

import (
	"github.com/atiendo/atiendo/internal/application/appcore"
	domainmessage "github.com/atiendo/atiendo/internal/domain/message"
)

// Result is the single-message use case result.
type Result = appcore.Result[*domainmessage.Message]

// ListMessagesResult carries one page of messages plus the chat total.
type ListMessagesResult struct {
	Messages []*domainmessage.Message
	Total    int
}
