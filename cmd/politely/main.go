// Politely is a Korean business-tone rewriting service: one pipeline, one
// streaming endpoint, no conversational state.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codeready-toolchain/politely/pkg/audit"
	"github.com/codeready-toolchain/politely/pkg/config"
	"github.com/codeready-toolchain/politely/pkg/llm"
	"github.com/codeready-toolchain/politely/pkg/metrics"
	"github.com/codeready-toolchain/politely/pkg/orchestrator"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: Could not load %s file: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	ginMode := getEnv("GIN_MODE", "debug")
	gin.SetMode(ginMode)

	log.Printf("Starting Politely")
	log.Printf("HTTP Port: %s", httpPort)
	log.Printf("Config Directory: %s", *configDir)

	cfg, err := config.Initialize(*configDir)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}
	stats := cfg.Stats()

	client := llm.NewHTTPClient(cfg.LLM.BaseURL, cfg.LLM.APIKeyEnv, cfg.LLM.Timeout)

	var auditClient *audit.Client
	if cfg.Audit.Enabled {
		auditCfg, err := audit.LoadConfigFromEnv(cfg.Audit.DSNEnv)
		if err != nil {
			log.Fatalf("Failed to load audit config: %v", err)
		}
		auditClient, err = audit.NewClient(context.Background(), auditCfg)
		if err != nil {
			log.Fatalf("Failed to connect to audit store: %v", err)
		}
		defer auditClient.Close()
		log.Println("✓ Connected to audit store")
	}

	var tracker *metrics.Tracker
	if cfg.Metrics.Enabled {
		tracker = metrics.NewTracker()
	}

	orch := orchestrator.New(client, cfg, tracker)

	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"configuration": gin.H{
				"final_model": stats.FinalModel,
				"label_model": stats.LabelModel,
				"retry_count": stats.RetryCount,
			},
		})
	})

	router.GET("/v1/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"gating":  cfg.Gating,
			"stages":  stageModelNames(cfg.Stages),
			"pipeline": cfg.Pipeline,
		})
	})

	if cfg.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.POST("/v1/rewrite", newRewriteHandler(orch, auditClient))

	log.Printf("HTTP server listening on :%s", httpPort)
	if err := router.Run(":" + httpPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func stageModelNames(s *config.StageModels) gin.H {
	return gin.H{
		"identity_booster":  s.IdentityBooster.Model,
		"segment_refiner":   s.SegmentRefiner.Model,
		"structure_labeler": s.StructureLabeler.Model,
		"situation_analyzer": s.SituationAnalyze.Model,
		"context_gating":    s.ContextGating.Model,
		"final_generator":   s.FinalGenerator.Model,
	}
}

// rewriteRequest is the POST /v1/rewrite body. Persona/Contexts/Tone feed
// the Template Selector's Input directly; ForceIdentityBooster and
// ForceSituationAnalysis let a caller bypass the gates for testing.
type rewriteRequest struct {
	Text                   string   `json:"text" binding:"required"`
	Persona                string   `json:"persona" binding:"required,oneof=BOSS CLIENT PROFESSOR PARENT OFFICIAL OTHER"`
	Contexts               []string `json:"contexts"`
	Tone                   string   `json:"tone" binding:"required,oneof=POLITE VERY_POLITE NEUTRAL"`
	Hint                   string   `json:"hint"`
	SenderName             string   `json:"senderName"`
	SenderRole             string   `json:"senderRole"`
	ForceIdentityBooster   bool     `json:"forceIdentityBooster"`
	ForceSituationAnalysis bool     `json:"forceSituationAnalysis"`
	ContextGatingEnabled   bool     `json:"contextGatingEnabled"`
	Debug                  bool     `json:"debug"`
}
