package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Arvo-AI/aurora/internal/agent"
	"github.com/Arvo-AI/aurora/internal/promptbuild"
	"github.com/Arvo-AI/aurora/internal/rca"
	"github.com/Arvo-AI/aurora/pkg/models"
	"github.com/google/uuid"
)

// agentTaskRunner implements rca.TaskRunner against the assembled
// engine — background investigations drive the identical
// cloud_exec/iac_tool-equipped tool loop an interactive turn would,
// per spec §4.9, rather than a separate code path.
type agentTaskRunner struct {
	eng *engine
}

func newAgentTaskRunner(eng *engine) *agentTaskRunner {
	return &agentTaskRunner{eng: eng}
}

func (r *agentTaskRunner) RunInvestigation(ctx context.Context, req rca.InvestigationRequest) error {
	session, err := r.eng.sessions.GetOrCreate(ctx, req.SessionID, "rca-investigator", models.ChannelSystem, req.SessionID)
	if err != nil {
		return fmt.Errorf("rca runner: load session: %w", err)
	}

	msg := &models.Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Channel:   models.ChannelSystem,
		Direction: models.DirectionInbound,
		Role:      models.RoleUser,
		Content:   req.InitialMessage,
		CreatedAt: time.Now(),
	}

	ctx = agent.WithRCAContext(ctx, promptbuild.RCAContext{
		Source:       "rca",
		Integrations: req.ProviderPreference,
		Trigger:      req.TriggerMetadata["trigger"],
	})

	chunks, err := r.eng.runtime.Process(ctx, session, msg)
	if err != nil {
		return fmt.Errorf("rca runner: start turn: %w", err)
	}

	var text strings.Builder
	for chunk := range chunks {
		if chunk.Error != nil {
			return fmt.Errorf("rca runner: turn failed: %w", chunk.Error)
		}
		text.WriteString(chunk.Text)
	}

	r.eng.logger.Info("rca investigation turn complete",
		"session_id", session.ID,
		"incident_id", req.IncidentID,
		"response_chars", text.Len(),
	)
	return nil
}

// agentSummaryModel implements rca.SummaryModel by issuing a single
// no-tool completion through the same LLM provider the engine uses,
// reusing the provider abstraction instead of a second HTTP client.
type agentSummaryModel struct {
	provider agent.LLMProvider
	model    string
}

func newAgentSummaryModel(eng *engine) *agentSummaryModel {
	return &agentSummaryModel{provider: eng.provider, model: eng.model}
}

func (m *agentSummaryModel) Complete(ctx context.Context, prompt string) (string, error) {
	req := &agent.CompletionRequest{
		Model:     m.model,
		Messages:  []agent.CompletionMessage{{Role: "user", Content: prompt}},
		MaxTokens: 1024,
	}
	chunks, err := m.provider.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("summary model: %w", err)
	}
	var out strings.Builder
	for chunk := range chunks {
		if chunk.Error != nil {
			return "", fmt.Errorf("summary model: %w", chunk.Error)
		}
		out.WriteString(chunk.Text)
	}
	return out.String(), nil
}

// sessionTranscriptSource implements rca.TranscriptSource by replaying
// a session's own message history instead of a dedicated tool-capture
// store: the background engine persists tool calls/results onto the
// session the same way an interactive turn does, so citation
// extraction reads them back from there.
type sessionTranscriptSource struct {
	sessions interface {
		GetHistory(ctx context.Context, sessionID string, limit int) ([]*models.Message, error)
	}
}

func (s sessionTranscriptSource) ToolCalls(ctx context.Context, sessionID string) ([]rca.ToolCallEvidence, error) {
	history, err := s.sessions.GetHistory(ctx, sessionID, 0)
	if err != nil {
		return nil, fmt.Errorf("transcript source: %w", err)
	}

	byID := make(map[string]string, len(history))
	for _, msg := range history {
		for _, tc := range msg.ToolCalls {
			byID[tc.ID] = tc.Name
		}
	}

	var evidence []rca.ToolCallEvidence
	for _, msg := range history {
		for _, tr := range msg.ToolResults {
			evidence = append(evidence, rca.ToolCallEvidence{
				ToolName: byID[tr.ToolCallID],
				Output:   tr.Content,
			})
		}
	}
	return evidence, nil
}
