package server

import (
	"errors"
	"net/http"

	"ecosmart/wallet"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

func (h *Handlers) GetBenefits(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, wallet.Benefits())
}

func (h *Handlers) GetWallet(c *gin.Context) {
	w, err := h.wallet.GetWallet(c.Request.Context(), c.Param("user_id"))
	if errors.Is(err, wallet.ErrWalletNotFound) {
		c.String(http.StatusNotFound, "Digital wallet not found.")
		return
	}
	if err != nil {
		log.Errorf("Failed to read wallet: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.IndentedJSON(http.StatusOK, w)
}

func (h *Handlers) GetTransactions(c *gin.Context) {
	txns, err := h.wallet.Transactions(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		log.Errorf("Failed to read transactions: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.IndentedJSON(http.StatusOK, txns)
}

func (h *Handlers) RedeemBenefit(c *gin.Context) {
	userID := c.Param("user_id")

	benefit, err := wallet.BenefitByID(c.Param("benefit_id"))
	if err != nil {
		c.String(http.StatusNotFound, "Benefit not found.")
		return
	}

	txn, err := h.wallet.Redeem(c.Request.Context(), userID, benefit)
	switch {
	case errors.Is(err, wallet.ErrWalletNotFound):
		c.String(http.StatusNotFound, "Digital wallet not found.")
		return
	case errors.Is(err, wallet.ErrInsufficientBalance):
		c.String(http.StatusBadRequest, "Insufficient coins for this benefit.")
		return
	case err != nil:
		log.Errorf("Failed to redeem benefit for %s: %v", userID, err)
		c.Status(http.StatusInternalServerError)
		return
	}

	w, err := h.wallet.GetWallet(c.Request.Context(), userID)
	if err != nil {
		log.Errorf("Failed to re-read wallet for %s: %v", userID, err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"message":           "Successfully redeemed " + benefit.Name,
		"transaction_id":    txn.ID,
		"coins_used":        benefit.CoinsRequired,
		"remaining_balance": w.Balance,
		"validity_days":     benefit.ValidityDays,
	})
}
