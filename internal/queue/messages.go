package queue

// SettlementMsg asks the worker to run the settlement pipeline up to Stage.
type SettlementMsg struct {
	Stage         int    `json:"stage"`
	CorrelationID string `json:"correlation_id"`
	Reason        string `json:"reason,omitempty"`
}

// ReconcileMsg asks the worker to run one reconciliation sweep.
type ReconcileMsg struct {
	CorrelationID string `json:"correlation_id"`
}
