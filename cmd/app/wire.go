//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/complaint-intake/internal/bootstrap"
	"github.com/yanqian/complaint-intake/internal/domain/answering"
	"github.com/yanqian/complaint-intake/internal/domain/auth"
	"github.com/yanqian/complaint-intake/internal/domain/intake"
	"github.com/yanqian/complaint-intake/internal/infra/config"
	httpiface "github.com/yanqian/complaint-intake/internal/interface/http"
	"github.com/yanqian/complaint-intake/pkg/logger"
	"github.com/yanqian/complaint-intake/pkg/metrics"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		metrics.NewIntake,
		provideIntakeConfig,
		provideAnsweringConfig,
		provideAuthConfig,
		providePostgresPool,
		provideSubmissionRepository,
		provideAnswerRepository,
		provideObjectStorage,
		provideJobQueue,
		provideIntakeQueue,
		provideChatGPTClient,
		provideEmbedder,
		provideLLM,
		provideChunker,
		intake.NewService,
		answering.NewService,
		auth.NewService,
		wire.Bind(new(httpiface.IntakeService), new(*intake.Service)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
