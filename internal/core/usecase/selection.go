package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/provoco/clauseadvisor/internal/core/domain"
	"github.com/provoco/clauseadvisor/internal/core/ports"
)

// SelectionPolicy holds the tunable constants of the selection protocol.
type SelectionPolicy struct {
	// ContextExcerptChars bounds the document excerpt sent for context
	// confirmation.
	ContextExcerptChars int
	// ConfirmationMaxTokens caps the context-confirmation reply.
	ConfirmationMaxTokens int
	// NameMatchCutoff is the fuzzy-containment similarity cutoff for
	// validating returned clause names.
	NameMatchCutoff float64
}

func DefaultSelectionPolicy() SelectionPolicy {
	return SelectionPolicy{
		ContextExcerptChars:   1000,
		ConfirmationMaxTokens: 1000,
		NameMatchCutoff:       0.8,
	}
}

// selectionState enumerates the protocol states. Transitions only move
// forward; the conversation is append-only throughout.
type selectionState int

const (
	stateInit selectionState = iota
	stateContextConfirmation
	stateClauseSelection
	stateValidation
	stateRetryOnce
	stateDone
	stateEmptyResult
)

// maxSelectionRetries is the full retry budget: exactly one corrective call
// after a hallucinated clause name, never more.
const maxSelectionRetries = 1

// SelectionProtocol runs the bounded multi-turn conversation that picks
// clauses from the candidate set. It issues at most three completion calls
// per run: one context confirmation plus at most two selection attempts.
// All calls use temperature zero.
type SelectionProtocol struct {
	completer ports.ChatCompleter
	policy    SelectionPolicy
}

func NewSelectionProtocol(completer ports.ChatCompleter, policy SelectionPolicy) *SelectionProtocol {
	def := DefaultSelectionPolicy()
	if policy.ContextExcerptChars <= 0 {
		policy.ContextExcerptChars = def.ContextExcerptChars
	}
	if policy.ConfirmationMaxTokens <= 0 {
		policy.ConfirmationMaxTokens = def.ConfirmationMaxTokens
	}
	if policy.NameMatchCutoff <= 0 || policy.NameMatchCutoff > 1 {
		policy.NameMatchCutoff = def.NameMatchCutoff
	}
	return &SelectionProtocol{completer: completer, policy: policy}
}

// Run executes the protocol. Parse failures yield an empty selection and a
// nil error; only completion-service failures propagate as errors.
func (p *SelectionProtocol) Run(
	ctx context.Context,
	documentText string,
	candidates []domain.Candidate,
	corpusNames []string,
) ([]domain.Selection, error) {
	state := stateInit
	var messages []domain.ChatMessage
	var selections []domain.Selection
	var invalid []string
	retries := 0

	for {
		switch state {
		case stateInit:
			messages = append(messages,
				domain.ChatMessage{Role: domain.RoleSystem, Content: systemInstructions},
				domain.ChatMessage{Role: domain.RoleUser, Content: p.contextPrompt(documentText)},
			)
			reply, err := p.completer.Complete(ctx, messages, 0, p.policy.ConfirmationMaxTokens)
			if err != nil {
				return nil, fmt.Errorf("context confirmation: %w", err)
			}
			// The confirmation reply is appended but never validated.
			messages = append(messages, domain.ChatMessage{Role: domain.RoleAssistant, Content: reply})
			state = stateContextConfirmation

		case stateContextConfirmation:
			messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: clausePrompt(candidates)})
			state = stateClauseSelection

		case stateClauseSelection:
			reply, err := p.completer.Complete(ctx, messages, 0, 0)
			if err != nil {
				return nil, fmt.Errorf("clause selection: %w", err)
			}
			parsed, ok := parseSelections(reply)
			if !ok {
				slog.Warn("selection_parse_failed", "attempt", retries+1)
				state = stateEmptyResult
				continue
			}
			selections = parsed
			if retries > 0 {
				// The retried result is accepted unconditionally.
				state = stateDone
				continue
			}
			messages = append(messages, domain.ChatMessage{Role: domain.RoleAssistant, Content: reply})
			state = stateValidation

		case stateValidation:
			invalid = p.invalidNames(selections, corpusNames)
			if len(invalid) == 0 {
				state = stateDone
				continue
			}
			state = stateRetryOnce

		case stateRetryOnce:
			if retries >= maxSelectionRetries {
				state = stateEmptyResult
				continue
			}
			retries++
			slog.Warn("selection_hallucinated_names", "names", strings.Join(invalid, ", "))
			messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: correctionPrompt(invalid)})
			state = stateClauseSelection

		case stateDone:
			return selections, nil

		case stateEmptyResult:
			return nil, nil
		}
	}
}

func (p *SelectionProtocol) contextPrompt(documentText string) string {
	excerpt := strings.TrimSpace(truncateRunes(documentText, p.policy.ContextExcerptChars))
	return fmt.Sprintf(
		"Here's the contract:\n\n%s\n\nI will send you some clauses next. For now, just confirm you have read the contract and are ready to receive the clauses. A short summary of the content of the contract would be fine.",
		excerpt,
	)
}

func (p *SelectionProtocol) invalidNames(selections []domain.Selection, corpusNames []string) []string {
	var invalid []string
	for _, selection := range selections {
		target := selection.ClauseName + domain.ClauseFileSuffix
		if !hasCloseMatch(target, corpusNames, p.policy.NameMatchCutoff) {
			invalid = append(invalid, selection.ClauseName)
		}
	}
	return invalid
}

const systemInstructions = "You are a legal AI assistant that helps review and select climate-aligned clauses for the uploaded document. You can only select from those clauses provided to you. We are trying to help the writers of the document integrate climate-aligned language."

func clausePrompt(candidates []domain.Candidate) string {
	var b strings.Builder
	b.WriteString("Here are the clauses:\n\n")
	for i, candidate := range candidates {
		fmt.Fprintf(&b, "Clause %d\nName: %s\nMethod: %s\nFull Text:\n%s\n\n",
			i+1, candidate.SourceName, candidate.MatchedBy, candidate.Text)
	}
	b.WriteString(selectionRules)
	return b.String()
}

const selectionRules = `Select the clauses from the list that best align with the contract. It is really important that you answer this consistently and the same way every time. If I upload the same contract again, I expect to see the same answer.

This is a two step process.

Step 1: Binary select the clauses that are a good fit for the contract. Go through one by one and remember which ones you selected as a potential fit. As a rule of thumb, give no fewer than 3 and no more than 7. If there is good reason, you can do fewer or more.
Step 2: Go through those that you have selected as a fit and provide reasoning. Feel free to reconsider whether they are a fit once you go through them again.

Follow these rules:

1. Your response must be a JSON array of exactly as many objects as there are clauses you have selected as a fit, each with the keys "Clause Name" and "Reasoning".
2. Only select from the clauses provided - do not invent new ones.
3. Remember the contract's content and purpose. The goal of its writers is likely not to reduce their emissions, but to meet other business or legal needs. We are telling them where they can inject climate-aligned language into the existing contract, but the existing contract and its goals are the most important consideration.
4. Pay close attention to what the contract is doing - the transaction type, structure, and key obligations - not just who the parties are or what sector they operate in. Clauses must fit the actual function and scope of the contract.
5. Consider the relationship between the parties (e.g. supplier-customer, insurer-insured, JV partners). If a clause assumes a different relationship, only suggest it if it can realistically be adapted, and explain how.
6. You may include a clause that is not a perfect match if it serves a similar legal or operational function and you clearly explain how it could be adapted to the contract context.
7. Do not recommend clauses that clearly mismatch the contract's type, scope, or parties.
8. Avoid redundancy. If the contract already addresses a topic, only suggest a clause on that topic if it adds clear value.

Focus on legal function, contextual fit, and the actual mechanics of the contract. You are recommending starting points - plausible clauses the user could adapt.`

func correctionPrompt(invalid []string) string {
	return fmt.Sprintf(
		"One of the clauses you recommended (%s) was not in the provided set. Do not hallucinate: only pick from the list I gave you, and please try again.",
		strings.Join(invalid, ", "),
	)
}

// parseSelections extracts the JSON array from a completion reply. Models
// often wrap the array in prose or code fences; everything outside the
// outermost brackets is ignored.
func parseSelections(reply string) ([]domain.Selection, bool) {
	raw := extractJSONArray(reply)
	if raw == "" {
		return nil, false
	}

	var selections []domain.Selection
	if err := json.Unmarshal([]byte(raw), &selections); err != nil {
		return nil, false
	}
	for _, selection := range selections {
		if strings.TrimSpace(selection.ClauseName) == "" {
			return nil, false
		}
	}
	return selections, true
}

func extractJSONArray(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return ""
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
