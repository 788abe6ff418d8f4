package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/contaleve/onboarding-backend/config"
	"github.com/contaleve/onboarding-backend/internal/app/repository"
	"github.com/contaleve/onboarding-backend/internal/db"
)

// Exports every onboarding with its progress into an xlsx report for
// the compliance team.
//
// Usage: go run cmd/report/main.go <output.xlsx>
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/report/main.go <output_xlsx_path>")
	}
	outputPath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	customerRepo := repository.NewCustomerRepository(db.GetDB())
	progressRepo := repository.NewProgressRepository(db.GetDB())
	stateRepo := repository.NewStateRepository(db.GetDB())

	customers, err := customerRepo.FindAll()
	if err != nil {
		log.Fatal("Failed to list customers:", err)
	}

	file := excelize.NewFile()
	defer file.Close()

	sheet := "Onboardings"
	file.SetSheetName(file.GetSheetName(0), sheet)

	headers := []string{
		"Cliente", "Documento", "Tipo de Conta", "Status", "Status Externo",
		"Etapa", "ID Registro", "Campos Pendentes", "Última Sincronização",
		"Resultado", "Último Evento", "Criado Em",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		file.SetCellValue(sheet, cell, header)
	}

	row := 2
	for _, customer := range customers {
		pendingFields := ""
		lastSync := ""
		lastResult := ""
		if progress, err := progressRepo.FindByCustomerID(customer.ID); err == nil {
			pendingFields = strings.Join(progress.PendingFields, ", ")
			if progress.LastSyncAt != nil {
				lastSync = progress.LastSyncAt.Format(time.RFC3339)
			}
			lastResult = progress.LastSyncStatus
		}

		lastEvent := ""
		if state, err := stateRepo.Latest(customer.ID); err == nil {
			lastEvent = state.Message
		}

		values := []interface{}{
			customer.ID,
			customer.Document,
			string(customer.AccountType),
			customer.Status.Label(),
			customer.ExternalStatus,
			customer.CurrentStep,
			customer.IndividualID,
			pendingFields,
			lastSync,
			lastResult,
			lastEvent,
			customer.CreatedAt.Format(time.RFC3339),
		}
		for i, value := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			file.SetCellValue(sheet, cell, value)
		}
		row++
	}

	if err := file.SaveAs(outputPath); err != nil {
		log.Fatal("Failed to save report:", err)
	}

	fmt.Printf("Report written to %s (%d onboardings)\n", outputPath, len(customers))
}
