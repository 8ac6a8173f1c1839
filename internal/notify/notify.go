// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

// Package notify delivers password reset codes to users.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// ResetCode is a reset code ready to hand to its owner.
type ResetCode struct {
	Email     string
	Code      string
	ExpiresIn time.Duration
}

// Notifier delivers reset codes.
type Notifier interface {
	SendResetCode(ctx context.Context, msg ResetCode) error
}

// LogNotifier records that a code would have been sent without revealing it.
// Used when no mail server is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// SendResetCode logs the delivery.
func (n *LogNotifier) SendResetCode(ctx context.Context, msg ResetCode) error {
	n.logger.WarnContext(ctx, "mail not configured, reset code not sent",
		"email", msg.Email,
		"expires_in", msg.ExpiresIn.String())
	return nil
}
