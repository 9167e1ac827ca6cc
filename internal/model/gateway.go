package model

import "encoding/json"

// EventChargeSuccess is the only webhook event that moves an order.
const EventChargeSuccess = "charge.success"

type GatewayWebhookEvent struct {
	Event string             `json:"event"`
	Data  GatewayWebhookData `json:"data"`
}

type GatewayWebhookData struct {
	ID        json.Number `json:"id"`
	Reference string      `json:"reference"`
	Status    string      `json:"status"`
	Amount    int64       `json:"amount"` // minor units
	Currency  string      `json:"currency"`
}
