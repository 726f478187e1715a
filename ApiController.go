package main

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"net/http"
	"spreadsheetEngine/contracts"
	"strings"
)

type ApiController struct {
	SheetRepository   contracts.SheetRepository
	WebhookDispatcher contracts.WebhookDispatcher
	Canonicalizer     contracts.Canonicalizer
}

type CellEndpointParams struct {
	SheetId string `uri:"sheet_id" binding:"required"`
	CellId  string `uri:"cell_id" binding:"required"`
}

type SheetEndpointParams struct {
	SheetId string `uri:"sheet_id" binding:"required"`
}

type SetCellRequest struct {
	// pointer, so an empty value which clears the cell still passes `required`
	Value *string `json:"value" binding:"required"`
}

type SetCellResponse struct {
	Value   string            `json:"value"`
	Result  string            `json:"result"`
	Updated []*contracts.Cell `json:"updated,omitempty"`
}

type EvaluateRequest struct {
	Expression string             `json:"expression" binding:"required"`
	Variables  map[string]float64 `json:"variables"`
}

type SubscribeRequest struct {
	WebhookUrl string `json:"webhook_url" binding:"omitempty,url"`
}

const xmlFormat = "xml"

var RequestError = errors.New("invalid request")

func NewApiController(
	sheetRepository contracts.SheetRepository, webhookDispatcher contracts.WebhookDispatcher, canonicalizer contracts.Canonicalizer,
) *ApiController {
	return &ApiController{
		SheetRepository:   sheetRepository,
		WebhookDispatcher: webhookDispatcher,
		Canonicalizer:     canonicalizer,
	}
}

func (api *ApiController) GetCellAction(c *gin.Context) {
	params := CellEndpointParams{}
	var response *contracts.Cell

	err := bindRequest(c, &params, nil)

	if err == nil {
		response, err = api.SheetRepository.GetCell(params.SheetId, params.CellId)
	}

	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
	} else {
		c.JSON(http.StatusOK, response)
	}
}

func (api *ApiController) SetCellAction(c *gin.Context) {
	params := CellEndpointParams{}
	request := SetCellRequest{}
	var cells []*contracts.Cell

	err := bindRequest(c, &params, &request)

	if err == nil {
		cells, err = api.SheetRepository.SetCell(params.SheetId, params.CellId, *request.Value)
	}

	response := SetCellResponse{}
	if request.Value != nil {
		response.Value = *request.Value
	}

	if err != nil {
		response.Result = err.Error()
		c.JSON(errorStatus(err), response)
		return
	}

	if len(cells) > 0 {
		response.Result = cells[0].Result
		response.Updated = cells[1:]
	}
	c.JSON(http.StatusCreated, response)
}

func (api *ApiController) GetSheetAction(c *gin.Context) {
	params := SheetEndpointParams{}

	err := bindRequest(c, &params, nil)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	if strings.EqualFold(c.Query("format"), xmlFormat) {
		api.exportSheet(c, params.SheetId)
		return
	}

	response, err := api.SheetRepository.GetCellList(params.SheetId)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
	} else {
		c.JSON(http.StatusOK, response)
	}
}

func (api *ApiController) exportSheet(c *gin.Context, sheetId string) {
	document := bytes.Buffer{}

	err := api.SheetRepository.ExportSheet(sheetId, &document)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
	} else {
		c.Data(http.StatusOK, "application/xml; charset=utf-8", document.Bytes())
	}
}

func (api *ApiController) EvaluateAction(c *gin.Context) {
	params := SheetEndpointParams{}
	request := EvaluateRequest{}

	err := bindRequest(c, &params, &request)

	var result string
	if err == nil {
		result, err = api.SheetRepository.Evaluate(params.SheetId, request.Expression, request.Variables)
	}

	if err != nil {
		c.JSON(errorStatus(err), gin.H{"expression": request.Expression, "error": err.Error()})
	} else {
		c.JSON(http.StatusOK, gin.H{"expression": request.Expression, "result": result})
	}
}

func (api *ApiController) ImportSheetAction(c *gin.Context) {
	params := SheetEndpointParams{}

	err := bindRequest(c, &params, nil)

	var response contracts.CellList
	if err == nil {
		response, err = api.SheetRepository.ImportSheet(params.SheetId, c.Request.Body)
	}

	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
	} else {
		c.JSON(http.StatusCreated, response)
	}
}

func (api *ApiController) SubscribeAction(c *gin.Context) {
	params := CellEndpointParams{}
	request := SubscribeRequest{}

	err := bindRequest(c, &params, &request)

	var cell *contracts.Cell
	if err == nil {
		cell, err = api.SheetRepository.GetCell(params.SheetId, params.CellId)
	}

	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	api.WebhookDispatcher.SetWebhookUrl(strings.ToLower(params.SheetId), api.Canonicalizer.Canonicalize(params.CellId), request.WebhookUrl)

	c.JSON(http.StatusCreated, gin.H{
		"value":       cell.Value,
		"result":      cell.Result,
		"webhook_url": request.WebhookUrl,
	})
}

// errorStatus maps repository and engine errors to HTTP codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, contracts.CellNotFoundError) || errors.Is(err, contracts.SheetNotFoundError):
		return http.StatusNotFound
	case isRequestError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func isRequestError(err error) bool {
	return errors.Is(err, RequestError) ||
		errors.Is(err, InvalidNameError) ||
		errors.Is(err, FormulaFormatError) ||
		errors.Is(err, CircularDependencyError) ||
		errors.Is(err, ReadWriteError)
}

func bindRequest(c *gin.Context, params any, request any) error {
	err := c.ShouldBindUri(params)
	if err == nil && request != nil {
		err = c.ShouldBindJSON(request)
	}

	if err != nil {
		return fmt.Errorf("%w: %w", RequestError, err)
	}
	return nil
}
