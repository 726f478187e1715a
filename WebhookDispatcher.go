package main

import (
	"bytes"
	json "github.com/bytedance/sonic"
	"golang.org/x/sync/errgroup"
	"io"
	"log/slog"
	"net/http"
	"spreadsheetEngine/contracts"
	"sync"
	"time"
)

const DefaultWebhookWorkersCount = 5

const DefaultWebhookTimeout = 5 * time.Second

const webhookQueueSize = 20

type SheetWebhooks map[string]string

type WebhookSendCommand struct {
	Webhook string
	Cell    *contracts.Cell
}

// WebhookDispatcher posts recalculated cells to the URLs subscribed to them.
// Notify never blocks the caller; delivery happens on a pool of workers.
type WebhookDispatcher struct {
	queue       chan WebhookSendCommand
	webhooks    map[string]SheetWebhooks
	workerCount int
	client      *http.Client
	logger      *slog.Logger

	mutex   sync.RWMutex
	closed  bool
	pending sync.WaitGroup
	workers errgroup.Group
}

func NewWebhookDispatcher(workerCount int, timeout time.Duration) *WebhookDispatcher {
	if workerCount <= 0 {
		workerCount = DefaultWebhookWorkersCount
	}
	if timeout <= 0 {
		timeout = DefaultWebhookTimeout
	}

	return &WebhookDispatcher{
		queue:       make(chan WebhookSendCommand, webhookQueueSize),
		webhooks:    map[string]SheetWebhooks{},
		workerCount: workerCount,
		client:      &http.Client{Timeout: timeout},
		logger:      slog.Default().With(slog.String("component", "webhook_dispatcher")),
	}
}

// SetWebhookUrl subscribes webhookUrl to a cell; an empty url unsubscribes.
func (manager *WebhookDispatcher) SetWebhookUrl(canonicalSheetId string, canonicalCellId string, webhookUrl string) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	if webhookUrl == "" {
		delete(manager.webhooks[canonicalSheetId], canonicalCellId)
		if len(manager.webhooks[canonicalSheetId]) == 0 {
			delete(manager.webhooks, canonicalSheetId)
		}
		return
	}

	if _, ok := manager.webhooks[canonicalSheetId]; !ok {
		manager.webhooks[canonicalSheetId] = SheetWebhooks{}
	}
	manager.webhooks[canonicalSheetId][canonicalCellId] = webhookUrl
}

func (manager *WebhookDispatcher) GetWebhookUrl(canonicalSheetId string, canonicalCellId string) string {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	return manager.webhooks[canonicalSheetId][canonicalCellId]
}

func (manager *WebhookDispatcher) Notify(canonicalSheetId string, cells []*contracts.Cell) {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	if manager.closed {
		return
	}

	sheetWebhooks, ok := manager.webhooks[canonicalSheetId]
	if !ok {
		return
	}

	commands := make([]WebhookSendCommand, 0, len(cells))
	for _, cell := range cells {
		if webhook, ok := sheetWebhooks[cell.CanonicalKey]; ok {
			commands = append(commands, WebhookSendCommand{
				Webhook: webhook,
				Cell:    cell,
			})
		}
	}

	if len(commands) == 0 {
		return
	}

	manager.pending.Add(1)
	go manager.addToQueue(commands)
}

func (manager *WebhookDispatcher) addToQueue(commands []WebhookSendCommand) {
	defer manager.pending.Done()

	for _, command := range commands {
		manager.queue <- command
	}
}

func (manager *WebhookDispatcher) Start() {
	for i := 0; i < manager.workerCount; i++ {
		manager.workers.Go(func() error {
			manager.runWebhookSenderWorker()
			return nil
		})
	}
}

// Close stops accepting notifications, delivers the queued ones and waits
// for the workers to finish.
func (manager *WebhookDispatcher) Close() {
	manager.mutex.Lock()
	if manager.closed {
		manager.mutex.Unlock()
		return
	}
	manager.closed = true
	manager.mutex.Unlock()

	manager.pending.Wait()
	close(manager.queue)
	_ = manager.workers.Wait()
}

func (manager *WebhookDispatcher) runWebhookSenderWorker() {
	for command := range manager.queue {
		manager.send(command)
	}
}

func (manager *WebhookDispatcher) send(command WebhookSendCommand) {
	payload, err := json.Marshal(command.Cell)
	if err != nil {
		manager.logger.Error("webhook payload", slog.String("error", err.Error()))
		return
	}

	response, err := manager.client.Post(command.Webhook, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		manager.logger.Warn("webhook send",
			slog.String("url", command.Webhook),
			slog.String("cell_id", command.Cell.CanonicalKey),
			slog.String("error", err.Error()),
		)
		return
	}

	_, _ = io.Copy(io.Discard, response.Body)
	_ = response.Body.Close()

	if response.StatusCode >= 300 {
		manager.logger.Warn("unexpected webhook response",
			slog.String("url", command.Webhook),
			slog.String("status", response.Status),
		)
	}
}
