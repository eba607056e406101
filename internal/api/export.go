package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/awslens/awslens/pkg/report"
)

func (r *Router) handleExportXLSX(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodGet) {
		return
	}

	data, err := report.XLSX(r.monitor.GetState())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export_failed", "Failed to build the XLSX report")
		return
	}

	serveDownload(w, data,
		fmt.Sprintf("awslens-report-%s.xlsx", time.Now().Format("20060102-150405")),
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

func (r *Router) handleExportPDF(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodGet) {
		return
	}

	data, err := report.PDF(r.monitor.GetState())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export_failed", "Failed to build the PDF report")
		return
	}

	serveDownload(w, data,
		fmt.Sprintf("awslens-report-%s.pdf", time.Now().Format("20060102-150405")),
		"application/pdf")
}

func (r *Router) handleExportCostsCSV(w http.ResponseWriter, req *http.Request) {
	if !allowMethod(w, req, http.MethodGet) {
		return
	}

	data, err := report.CostsCSV(r.monitor.GetState())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export_failed", "Failed to build the cost CSV")
		return
	}

	serveDownload(w, data,
		fmt.Sprintf("awslens-costs-%s.csv", time.Now().Format("20060102")),
		"text/csv")
}

func serveDownload(w http.ResponseWriter, data []byte, filename, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
