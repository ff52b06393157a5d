package mcp

import (
	"context"
	"fmt"
	"time"
)

// Simulated stand-ins for real tool connectors.

type webSearchResource struct{}

func (webSearchResource) Name() string {
	return "web_search"
}

func (webSearchResource) Call(ctx context.Context, query string) (string, error) {
	return fmt.Sprintf("Sample web snippet for '%s' (local demo).", query), nil
}

type documentStoreResource struct{}

func (documentStoreResource) Name() string {
	return "document_store"
}

func (documentStoreResource) Call(ctx context.Context, query string) (string, error) {
	return fmt.Sprintf("Found reference to '%s' in Report.docx (local demo).", query), nil
}

type calendarResource struct{}

func (calendarResource) Name() string {
	return "calendar"
}

func (calendarResource) Call(ctx context.Context, query string) (string, error) {
	return "Today is " + time.Now().Format("2006-01-02") + ".", nil
}

type calculatorResource struct{}

func (calculatorResource) Name() string {
	return "calculator"
}

func (calculatorResource) Call(ctx context.Context, query string) (string, error) {
	value, err := evalArithmetic(query)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Calculation result: %v", value), nil
}
