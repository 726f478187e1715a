package main

import (
	"github.com/gin-gonic/gin"
	"go.etcd.io/bbolt"
	"spreadsheetEngine/contracts"
	"time"
)

const databaseOpenTimeout = time.Second

type ServiceContainer struct {
	Database          *bbolt.DB
	WebhookDispatcher *WebhookDispatcher
	SheetRepository   contracts.SheetRepository
	ApiController     contracts.ApiController
	Router            *gin.Engine
}

func BuildServiceContainer(config Config) (container ServiceContainer, err error) {
	container.Database, err = bbolt.Open(config.DatabaseFilepath, 0600, &bbolt.Options{Timeout: databaseOpenTimeout})
	if err != nil {
		return
	}

	serializer := NewCellBinarySerializer()
	canonicalizer := NewCanonicalizer()

	container.WebhookDispatcher = NewWebhookDispatcher(config.WebhookWorkers, config.WebhookTimeout)
	container.SheetRepository = NewSheetRepository(container.Database, serializer, canonicalizer, container.WebhookDispatcher, config.SheetVersion)
	container.ApiController = NewApiController(container.SheetRepository, container.WebhookDispatcher, canonicalizer)

	container.Router = SetupRouter(container.ApiController)

	return
}

func (container ServiceContainer) Close() error {
	container.WebhookDispatcher.Close()
	return container.Database.Close()
}
