package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"bnbillains/config"
	"bnbillains/controllers"
	"bnbillains/middleware"
)

// Controllers groups every handler set mounted under /api.
type Controllers struct {
	Villains     *controllers.VillainController
	Lairs        *controllers.LairController
	Amenities    *controllers.AmenityController
	Reviews      *controllers.ReviewController
	SecretRooms  *controllers.SecretRoomController
	Reservations *controllers.ReservationController
	Invoices     *controllers.InvoiceController
}

func SetupRouter(cfg config.Config, log *logrus.Logger, ctl Controllers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(log), middleware.Metrics(), gin.Recovery())
	r.Static("/uploads", cfg.UploadDir)

	origins := cfg.CORSOrigins
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		villains := api.Group("/villains")
		{
			villains.GET("", ctl.Villains.GetVillains)
			villains.POST("", ctl.Villains.CreateVillain)
			villains.GET("/:id", ctl.Villains.GetVillainByID)
			villains.PUT("/:id", ctl.Villains.UpdateVillain)
			villains.DELETE("/:id", ctl.Villains.DeleteVillain)
			villains.GET("/:id/invoices", ctl.Villains.GetVillainInvoices)
		}

		lairs := api.Group("/lairs")
		{
			lairs.GET("", ctl.Lairs.GetLairs)
			lairs.POST("", ctl.Lairs.CreateLair)
			lairs.GET("/:id", ctl.Lairs.GetLairByID)
			lairs.PUT("/:id", ctl.Lairs.UpdateLair)
			lairs.DELETE("/:id", ctl.Lairs.DeleteLair)
			lairs.GET("/:id/occupied-dates", ctl.Lairs.GetOccupiedDates)
			lairs.GET("/:id/image", ctl.Lairs.GetLairImage)
			lairs.POST("/:id/image", ctl.Lairs.UploadLairImage)
		}

		amenities := api.Group("/amenities")
		{
			amenities.GET("", ctl.Amenities.GetAmenities)
			amenities.POST("", ctl.Amenities.CreateAmenity)
			amenities.GET("/:id", ctl.Amenities.GetAmenityByID)
			amenities.PUT("/:id", ctl.Amenities.UpdateAmenity)
			amenities.DELETE("/:id", ctl.Amenities.DeleteAmenity)
		}

		reviews := api.Group("/reviews")
		{
			reviews.GET("", ctl.Reviews.GetReviews)
			reviews.POST("", ctl.Reviews.CreateReview)
			reviews.GET("/:id", ctl.Reviews.GetReviewByID)
			reviews.PUT("/:id", ctl.Reviews.UpdateReview)
			reviews.DELETE("/:id", ctl.Reviews.DeleteReview)
		}

		rooms := api.Group("/secret-rooms")
		{
			rooms.GET("", ctl.SecretRooms.GetSecretRooms)
			rooms.POST("", ctl.SecretRooms.CreateSecretRoom)
			rooms.GET("/:id", ctl.SecretRooms.GetSecretRoomByID)
			rooms.PUT("/:id", ctl.SecretRooms.UpdateSecretRoom)
			rooms.DELETE("/:id", ctl.SecretRooms.DeleteSecretRoom)
			rooms.POST("/:id/verify", ctl.SecretRooms.VerifySecretRoom)
		}

		reservations := api.Group("/reservations")
		{
			reservations.GET("", ctl.Reservations.GetReservations)
			reservations.POST("", ctl.Reservations.Book)
			reservations.GET("/:id", ctl.Reservations.GetReservationByID)
			reservations.PUT("/:id", ctl.Reservations.Reschedule)
			reservations.DELETE("/:id", ctl.Reservations.Cancel)
		}

		invoices := api.Group("/invoices")
		{
			invoices.GET("", ctl.Invoices.GetInvoices)
			invoices.POST("", ctl.Invoices.CreateInvoice)
			invoices.GET("/:id", ctl.Invoices.GetInvoiceByID)
			invoices.PUT("/:id", ctl.Invoices.UpdateInvoice)
			invoices.DELETE("/:id", ctl.Invoices.DeleteInvoice)
		}
	}

	return r
}
