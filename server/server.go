package server

import (
	"flag"
	"fmt"
	"time"

	"ecosmart/badge"
	"ecosmart/city"
	"ecosmart/classifier"
	"ecosmart/pickup"
	"ecosmart/reward"
	"ecosmart/wallet"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	EndPointHelp               = "/help"
	EndPointReport             = "/report"
	EndPointGetReports         = "/reports"
	EndPointGetReport          = "/reports/:report_id"
	EndPointBadgeInfo          = "/badges/info"
	EndPointGetBadges          = "/badges/:user_id"
	EndPointAddBadge           = "/badges/add"
	EndPointClaimBadge         = "/badges/claim"
	EndPointGetBenefits        = "/wallet/benefits"
	EndPointGetWallet          = "/wallet/:user_id"
	EndPointGetTransactions    = "/wallet/:user_id/transactions"
	EndPointRedeemBenefit      = "/wallet/:user_id/redeem/:benefit_id"
	EndPointCityLeaderboard    = "/cities/leaderboard"
	EndPointCityStats          = "/cities/stats/:city_name"
	EndPointUpdateUserCity     = "/users/:user_id/city"
	EndPointSchedulePickup     = "/pickups/schedule"
	EndPointGetPickups         = "/pickups"
	EndPointGetUserPickups     = "/pickups/user/:user_id"
	EndPointGetPickup          = "/pickups/:pickup_id"
	EndPointUpdatePickupStatus = "/pickups/:pickup_id/status/:status"
	EndPointAnalyzeWaste       = "/waste/analyze"
)

var serverPort = flag.Int("port", 8080, "The port used by the service.")

// Handlers bundles the incentive services behind the HTTP surface.
type Handlers struct {
	orchestrator *reward.Orchestrator
	badges       *badge.Service
	wallet       *wallet.Service
	cities       *city.Service
	pickups      *pickup.Service
	categorizer  classifier.Categorizer
}

func NewHandlers(orchestrator *reward.Orchestrator, badges *badge.Service,
	wallet *wallet.Service, cities *city.Service, pickups *pickup.Service,
	categorizer classifier.Categorizer) *Handlers {
	return &Handlers{
		orchestrator: orchestrator,
		badges:       badges,
		wallet:       wallet,
		cities:       cities,
		pickups:      pickups,
		categorizer:  categorizer,
	}
}

// StartService runs the HTTP server until the process exits.
func StartService(h *Handlers) {
	log.Info("Starting the service...")
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET(EndPointHelp, h.Help)
	router.POST(EndPointReport, h.SubmitReport)
	router.GET(EndPointGetReports, h.GetReports)
	router.GET(EndPointGetReport, h.GetReport)
	router.GET(EndPointBadgeInfo, h.GetBadgeInfo)
	router.GET(EndPointGetBadges, h.GetUserBadges)
	router.POST(EndPointAddBadge, h.AddBadge)
	router.POST(EndPointClaimBadge, h.ClaimBadge)
	router.GET(EndPointGetBenefits, h.GetBenefits)
	router.GET(EndPointGetWallet, h.GetWallet)
	router.GET(EndPointGetTransactions, h.GetTransactions)
	router.POST(EndPointRedeemBenefit, h.RedeemBenefit)
	router.GET(EndPointCityLeaderboard, h.GetLeaderboard)
	router.GET(EndPointCityStats, h.GetCityStats)
	router.POST(EndPointUpdateUserCity, h.UpdateUserCity)
	router.POST(EndPointSchedulePickup, h.SchedulePickup)
	router.GET(EndPointGetPickups, h.GetPickups)
	router.GET(EndPointGetUserPickups, h.GetUserPickups)
	router.GET(EndPointGetPickup, h.GetPickup)
	router.PUT(EndPointUpdatePickupStatus, h.UpdatePickupStatus)
	router.POST(EndPointAnalyzeWaste, h.AnalyzeWaste)

	router.Run(fmt.Sprintf(":%d", *serverPort))
	log.Info("Finished the service. Should not ever being seen.")
}
