package commands

import (
	"strconv"
	"strings"

	"github.com/fadedpez/scoreboard/internal/types"
)

const gamePrefix = "game"

// args is a command's arguments split into the forms users type
type args struct {
	code    string   // From a "game<code>" token
	numbers []string // Every other non-mention token, in order
}

func parseArgs(tokens []string) args {
	var a args
	for _, t := range tokens {
		switch {
		case isMention(t):
			// Resolved from Message.Mentions
		case strings.HasPrefix(strings.ToLower(t), gamePrefix) && len(t) > len(gamePrefix):
			a.code = t[len(gamePrefix):]
		default:
			a.numbers = append(a.numbers, t)
		}
	}
	return a
}

// isMention matches Discord style user mentions: <@123> and <@!123>
func isMention(t string) bool {
	return strings.HasPrefix(t, "<@") && strings.HasSuffix(t, ">")
}

// resolveCode picks the explicit code over the one taken from the replied
// message
func resolveCode(explicit string, fromContext int) (int, error) {
	if explicit != "" {
		return parseInt("game code", explicit)
	}
	if fromContext > 0 {
		return fromContext, nil
	}
	return 0, types.Malformed("game code", "")
}

func parseInt(field, value string) (int, error) {
	if value == "" {
		return 0, types.Malformed(field, "")
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, types.Malformed(field, value)
	}
	return n, nil
}
