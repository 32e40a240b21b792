package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/SAP-F-2025/school-service/internal/config"
	"github.com/SAP-F-2025/school-service/internal/events"
)

const activationSubject = "Account Activation"

// Consumer turns domain events into mail
type Consumer struct {
	mailer Mailer
	from   string
	admin  string
	logger *slog.Logger
}

func NewConsumer(mailer Mailer, cfg config.MailConfig, logger *slog.Logger) *Consumer {
	return &Consumer{
		mailer: mailer,
		from:   cfg.From,
		admin:  cfg.AdminEmail,
		logger: logger,
	}
}

// HandleUserRegistered mails the activation link to the admin. Delivery
// failures are logged and the message is acked; nothing is retried.
func (c *Consumer) HandleUserRegistered(msg *message.Message) error {
	ctx := msg.Context()

	var event events.Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.logger.ErrorContext(ctx, "Dropping malformed event", "message_id", msg.UUID, "error", err)
		return nil
	}

	var data events.UserRegistered
	if err := event.Decode(&data); err != nil {
		c.logger.ErrorContext(ctx, "Dropping malformed event", "event_id", event.ID, "error", err)
		return nil
	}

	mail := activationMail(c.from, c.admin, data)
	if err := c.mailer.Send(ctx, mail); err != nil {
		c.logger.ErrorContext(ctx, "Failed to send activation mail",
			"user_id", data.UserID,
			"to", c.admin,
			"error", err)
		return nil
	}

	c.logger.InfoContext(ctx, "Activation mail sent", "user_id", data.UserID, "to", c.admin)
	return nil
}

func activationMail(from, admin string, data events.UserRegistered) Mail {
	body := fmt.Sprintf(`Hello Admin,

A new user with username %s has registered and is awaiting activation.

To activate the user account, please follow the link below:
%s

Regards,
School
`, data.Username, data.ActivationURL)

	return Mail{
		From:    from,
		To:      []string{admin},
		Subject: activationSubject,
		Body:    body,
	}
}

// NewRouter wires the consumer's handlers onto subscriber
func NewRouter(subscriber message.Subscriber, consumer *Consumer, logger *slog.Logger) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)

	router.AddNoPublisherHandler(
		"activation_mail",
		events.TypeUserRegistered,
		subscriber,
		consumer.HandleUserRegistered,
	)

	return router, nil
}

// Start runs router in the background and waits until its handlers are
// subscribed. If Run exits first, for example because a subscription failed,
// Start returns its error. The returned channel closes when Run returns.
func Start(ctx context.Context, router *message.Router, logger *slog.Logger) (<-chan struct{}, error) {
	done := make(chan struct{})
	runErr := make(chan error, 1)
	go func() {
		defer close(done)
		err := router.Run(ctx)
		if err != nil {
			logger.Error("Notification router stopped", "error", err)
		}
		runErr <- err
	}()

	select {
	case <-router.Running():
		return done, nil
	case err := <-runErr:
		select {
		case <-router.Running():
			return done, nil
		default:
		}
		if err == nil {
			err = errors.New("notification router exited before running")
		}
		return done, fmt.Errorf("failed to start notification router: %w", err)
	}
}
