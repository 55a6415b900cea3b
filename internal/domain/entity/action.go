package entity

import (
	"fmt"
	"strings"
)

type ActionKind string

const (
	ActionSummary  ActionKind = "summary"
	ActionTheses   ActionKind = "theses"
	ActionTelegram ActionKind = "telegram"
)

// ActionKinds lists every transformation the service accepts, in display order.
var ActionKinds = []ActionKind{ActionSummary, ActionTheses, ActionTelegram}

func ParseActionKind(s string) (ActionKind, error) {
	for _, k := range ActionKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown action kind %q", s)
}

// ActionKindNames returns the accepted kinds joined for messages.
func ActionKindNames() string {
	names := make([]string, len(ActionKinds))
	for i, k := range ActionKinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

type TransformationRequest struct {
	URL        string
	ActionKind ActionKind
}
