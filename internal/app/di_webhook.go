package app

import (
	webhookHTTP "github.com/opentab/gatekeeper/internal/webhook/http"
	webhookService "github.com/opentab/gatekeeper/internal/webhook/service"
)

// WebhookVerifier returns the webhook signature verifier.
func (c *Container) WebhookVerifier() *webhookService.Verifier {
	c.webhookVerifierInit.Do(func() {
		// The replay cache rides on the shared ephemeral store; its failover
		// keeps replay protection fail-closed per attempt rather than taking
		// the ingress down.
		c.webhookVerifier = webhookService.NewVerifier(
			c.config.WebhookSecrets,
			c.config.WebhookTimestampWindow,
			c.config.WebhookReplayTTL,
			c.CacheStore(),
			c.Logger(),
		)
	})
	return c.webhookVerifier
}

// WebhookHandler returns the HTTP handler for webhook ingress.
func (c *Container) WebhookHandler() (*webhookHTTP.WebhookHandler, error) {
	c.webhookHandlerInit.Do(func() {
		c.webhookHandler = webhookHTTP.NewWebhookHandler(c.WebhookVerifier(), c.Logger())
	})
	return c.webhookHandler, nil
}
