package services

import (
	"context"
	"fmt"

	"coverhub/internal/adapters/persistence/models"
	"coverhub/internal/config"
	"coverhub/internal/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// EmailSender is the SES surface the service needs, kept narrow for mocking
type EmailSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// NotificationService sends workflow emails via SES. All sends are
// best-effort: failures are logged, never returned to the caller, and the
// service is disabled entirely when no sender address is configured.
type NotificationService struct {
	client  EmailSender
	sender  string
	enabled bool
}

// NewNotificationService creates a new notification service
func NewNotificationService(cfg *config.Config) *NotificationService {
	if cfg.Email.Sender == "" {
		logger.Infof("Email notifications disabled (SES_SENDER not set)")
		return &NotificationService{enabled: false}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Email.Region))
	if err != nil {
		logger.Warnf("Email notifications disabled: load AWS config: %v", err)
		return &NotificationService{enabled: false}
	}

	return &NotificationService{
		client:  ses.NewFromConfig(awsCfg),
		sender:  cfg.Email.Sender,
		enabled: true,
	}
}

// NewNotificationServiceWithClient wires a custom sender, used in tests
func NewNotificationServiceWithClient(client EmailSender, sender string) *NotificationService {
	return &NotificationService{client: client, sender: sender, enabled: true}
}

// IsEnabled checks if notification is enabled
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

func (s *NotificationService) send(ctx context.Context, to, subject, body string) {
	if !s.enabled || to == "" {
		return
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		logger.Errorf("Send email to %s failed: %v", to, err)
		return
	}
	logger.Debugf("Email sent to %s: %s", to, subject)
}

// NotifySubmitted tells the assigned manager a policy is waiting for review
func (s *NotificationService) NotifySubmitted(ctx context.Context, policy *models.Policy, manager *models.Manager) {
	if manager == nil || manager.User == nil {
		return
	}
	s.send(ctx, manager.User.Email,
		fmt.Sprintf("Policy %s submitted for review", policy.PolicyNumber),
		fmt.Sprintf("Policy %s (%s) has been submitted and assigned to you for review.",
			policy.PolicyNumber, serviceTypeName(policy)),
	)
}

// NotifyReassigned tells a manager a review has been moved onto their desk
func (s *NotificationService) NotifyReassigned(ctx context.Context, policy *models.Policy, manager *models.Manager) {
	if manager == nil || manager.User == nil {
		return
	}
	s.send(ctx, manager.User.Email,
		fmt.Sprintf("Policy %s reassigned to you", policy.PolicyNumber),
		fmt.Sprintf("Policy %s (%s) has been reassigned to you for review.",
			policy.PolicyNumber, serviceTypeName(policy)),
	)
}

// NotifyDecision tells the policyholder and the broker the review outcome
func (s *NotificationService) NotifyDecision(ctx context.Context, policy *models.Policy, outcome, reason string) {
	subject := fmt.Sprintf("Policy %s %s", policy.PolicyNumber, outcome)

	if policy.PolicyHolder != nil {
		body := fmt.Sprintf("Dear %s,\n\nYour policy %s has been %s.",
			policy.PolicyHolder.FullName(), policy.PolicyNumber, outcome)
		if reason != "" {
			body += "\n\nReason: " + reason
		}
		s.send(ctx, policy.PolicyHolder.Email, subject, body)
	}

	if policy.Broker != nil && policy.Broker.User != nil {
		body := fmt.Sprintf("Policy %s has been %s.", policy.PolicyNumber, outcome)
		if reason != "" {
			body += "\n\nReason: " + reason
		}
		s.send(ctx, policy.Broker.User.Email, subject, body)
	}
}

func serviceTypeName(policy *models.Policy) string {
	if policy.ServiceType != nil {
		return policy.ServiceType.Name
	}
	return fmt.Sprintf("service type %d", policy.ServiceTypeID)
}
