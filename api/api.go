/*
Copyright 2025 Tesoro Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tesoro-finance/tesoro"
	"github.com/tesoro-finance/tesoro/api/middleware"
	"github.com/tesoro-finance/tesoro/config"
	"github.com/tesoro-finance/tesoro/internal/apierror"
)

type Api struct {
	tesoro *tesoro.Tesoro
	router *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/submit_request", a.SubmitRequest)
	router.GET("/get_payment_proposal/:id", a.GetPaymentProposal)
	router.POST("/submit_payment_approval", a.SubmitPaymentApproval)
	router.GET("/payment_execution_result/:id", a.GetPaymentExecutionResult)
	return a.router
}

func NewAPI(t *tesoro.Tesoro) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()

	// health stays reachable without a key so probes keep working
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	return &Api{tesoro: t, router: r}
}

// apiError writes the uniform error envelope. Workflow errors carry their own
// HTTP status; anything else reads as an internal error.
func apiError(c *gin.Context, err error) {
	c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{
		"success": false,
		"error":   errorMessage(err),
	})
}

func errorMessage(err error) string {
	if apiErr, ok := err.(apierror.APIError); ok {
		return apiErr.Message
	}
	return err.Error()
}
