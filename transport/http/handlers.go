package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/custos/core"
	"github.com/layer-3/custos/service"
)

// WalletHandlers contains HTTP handlers for the wallet endpoints.
type WalletHandlers struct {
	provisioning *service.ProvisioningService
}

// NewWalletHandlers creates new wallet handlers.
func NewWalletHandlers(provisioning *service.ProvisioningService) *WalletHandlers {
	return &WalletHandlers{
		provisioning: provisioning,
	}
}

// WalletResponse is the wire shape of a wallet.
type WalletResponse struct {
	ID         string            `json:"id"`
	Address    string            `json:"address"`
	Blockchain string            `json:"blockchain"`
	CreatedAt  time.Time         `json:"created_at"`
	Balances   []BalanceResponse `json:"balances,omitempty"`
}

// BalanceResponse is the wire shape of a wallet balance.
type BalanceResponse struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

// Provision handles the provisioning request for the signed-in
// identity.
func (h *WalletHandlers) Provision(c *gin.Context) {
	identity := core.Identity(c.GetString("identity"))

	wallet, err := h.provisioning.ProvisionWallet(c.Request.Context(), identity)
	if err != nil {
		// Map workflow outcomes to appropriate status codes
		switch {
		case errors.Is(err, core.ErrProvisioningInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "Provisioning already in progress"})
		case errors.Is(err, core.ErrProvisioningTimeout):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Provisioning timed out"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "Provisioning failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallet": toWalletResponse(*wallet)})
}

// Wallets handles the steady-state wallet lookup.
func (h *WalletHandlers) Wallets(c *gin.Context) {
	identity := core.Identity(c.GetString("identity"))

	wallets, err := h.provisioning.Wallets(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch wallets"})
		return
	}

	resp := make([]WalletResponse, 0, len(wallets))
	for _, w := range wallets {
		resp = append(resp, toWalletResponse(w))
	}
	c.JSON(http.StatusOK, gin.H{"wallets": resp})
}

// Status reports whether a provisioning session is currently active
// for the signed-in identity.
func (h *WalletHandlers) Status(c *gin.Context) {
	identity := core.Identity(c.GetString("identity"))

	c.JSON(http.StatusOK, gin.H{"in_flight": h.provisioning.InFlight(identity)})
}

func toWalletResponse(w core.Wallet) WalletResponse {
	resp := WalletResponse{
		ID:         w.ID,
		Address:    w.Address,
		Blockchain: w.Blockchain,
		CreatedAt:  w.CreatedAt,
	}
	for _, b := range w.Balances {
		resp.Balances = append(resp.Balances, BalanceResponse{
			Currency: b.Currency,
			Amount:   b.Amount.String(),
		})
	}
	return resp
}
