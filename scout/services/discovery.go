package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"scout/scout/api"
	"scout/scout/discovery"
	"scout/scout/export"
	"scout/scout/schema"
)

type DiscoveryService struct {
	db         *gorm.DB
	discoverer Discoverer
}

func NewDiscoveryService(db *gorm.DB, discoverer Discoverer) DiscoveryService {
	return DiscoveryService{db: db, discoverer: discoverer}
}

func (s *DiscoveryService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", WrapRestHandler(s.RunDiscovery))
	r.Get("/", WrapRestHandler(s.ListRuns))
	r.Get("/{run_id}", WrapRestHandler(s.GetRun))
	r.Get("/{run_id}/csv", s.DownloadCSV)

	return r
}

func joinList(entries []string) string {
	return strings.Join(entries, "\n")
}

func splitList(joined string) []string {
	var entries []string
	for _, line := range strings.Split(joined, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			entries = append(entries, line)
		}
	}
	return entries
}

func toStoredAuthor(runId uuid.UUID, record api.AuthorRecord) schema.DiscoveredAuthor {
	return schema.DiscoveredAuthor{
		RunId:           runId,
		AuthorId:        record.AuthorId,
		FullName:        record.FullName,
		Institution:     record.Institution,
		Email:           record.Email,
		Department:      record.Department,
		Orcid:           record.Orcid,
		MatchedKeyword:  record.MatchedKeyword,
		WorksCount:      record.WorksCount,
		CitedByCount:    record.CitedByCount,
		RecentWorkTitle: record.RecentWorkTitle,
		Doi:             record.Doi,
		PaperUrl:        record.PaperUrl,
	}
}

func toRecord(author schema.DiscoveredAuthor) api.AuthorRecord {
	return api.AuthorRecord{
		AuthorId:        author.AuthorId,
		FullName:        author.FullName,
		Institution:     author.Institution,
		Email:           author.Email,
		Department:      author.Department,
		Orcid:           author.Orcid,
		MatchedKeyword:  author.MatchedKeyword,
		WorksCount:      author.WorksCount,
		CitedByCount:    author.CitedByCount,
		RecentWorkTitle: author.RecentWorkTitle,
		Doi:             author.Doi,
		PaperUrl:        author.PaperUrl,
	}
}

func (s *DiscoveryService) updateRunStatus(runId uuid.UUID, status string) {
	if err := s.db.Model(&schema.DiscoveryRun{Id: runId}).Update("Status", status).Error; err != nil {
		slog.Error("error updating run status", "run_id", runId, "status", status, "error", err)
	}
}

func (s *DiscoveryService) RunDiscovery(r *http.Request) (any, error) {
	req, err := ParseRequestBody[api.DiscoveryRequest](r)
	if err != nil {
		return nil, CodedError(err, http.StatusBadRequest)
	}

	if len(req.Institutions) == 0 || len(req.Keywords) == 0 {
		return nil, CodedError(errors.New("institutions and keywords must both be non-empty"), http.StatusUnprocessableEntity)
	}

	run := schema.DiscoveryRun{
		Id:              uuid.New(),
		CreatedAt:       time.Now().UTC(),
		Status:          schema.RunInProgress,
		Institutions:    joinList(req.Institutions),
		Keywords:        joinList(req.Keywords),
		InstitutionMode: req.InstitutionMode,
		KeywordMode:     req.KeywordMode,
	}

	if err := s.db.Create(&run).Error; err != nil {
		slog.Error("error creating discovery run", "error", err)
		return nil, CodedError(errors.New("error creating discovery run"), http.StatusInternalServerError)
	}

	slog.Info("running discovery", "run_id", run.Id,
		"n_institutions", len(req.Institutions), "n_keywords", len(req.Keywords),
		"institution_mode", req.InstitutionMode, "keyword_mode", req.KeywordMode)

	records, err := DiscoverWithModes(r.Context(), s.discoverer, req)
	if err != nil {
		if errors.Is(err, discovery.ErrNoAuthorsFound) {
			s.updateRunStatus(run.Id, schema.RunEmpty)
			return api.DiscoveryResponse{RunId: run.Id, Empty: true}, nil
		}

		s.updateRunStatus(run.Id, schema.RunFailed)
		return nil, CodedError(err, discoveryErrorStatus(err))
	}

	authors := make([]schema.DiscoveredAuthor, 0, len(records))
	for _, record := range records {
		authors = append(authors, toStoredAuthor(run.Id, record))
	}

	if err := s.db.Create(&authors).Error; err != nil {
		slog.Error("error storing discovered authors", "run_id", run.Id, "error", err)
		s.updateRunStatus(run.Id, schema.RunFailed)
		return nil, CodedError(errors.New("error storing discovered authors"), http.StatusInternalServerError)
	}

	s.updateRunStatus(run.Id, schema.RunCompleted)

	return api.DiscoveryResponse{RunId: run.Id, Authors: records}, nil
}

func (s *DiscoveryService) ListRuns(r *http.Request) (any, error) {
	var runs []schema.DiscoveryRun
	if err := s.db.Preload("Authors").Order("created_at desc").Find(&runs).Error; err != nil {
		slog.Error("error listing discovery runs", "error", err)
		return nil, CodedError(errors.New("error listing discovery runs"), http.StatusInternalServerError)
	}

	summaries := make([]api.RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, api.RunSummary{
			Id:           run.Id,
			CreatedAt:    run.CreatedAt,
			Status:       run.Status,
			Institutions: splitList(run.Institutions),
			Keywords:     splitList(run.Keywords),
			NumAuthors:   len(run.Authors),
		})
	}

	return summaries, nil
}

func (s *DiscoveryService) getRun(r *http.Request) (schema.DiscoveryRun, error) {
	runId, err := URLParamUUID(r, "run_id")
	if err != nil {
		return schema.DiscoveryRun{}, CodedError(err, http.StatusBadRequest)
	}

	var run schema.DiscoveryRun
	if err := s.db.Preload("Authors").First(&run, "id = ?", runId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return schema.DiscoveryRun{}, CodedError(fmt.Errorf("run %v not found", runId), http.StatusNotFound)
		}
		slog.Error("error fetching discovery run", "run_id", runId, "error", err)
		return schema.DiscoveryRun{}, CodedError(errors.New("error fetching discovery run"), http.StatusInternalServerError)
	}

	return run, nil
}

func (s *DiscoveryService) GetRun(r *http.Request) (any, error) {
	run, err := s.getRun(r)
	if err != nil {
		return nil, err
	}

	records := make([]api.AuthorRecord, 0, len(run.Authors))
	for _, author := range run.Authors {
		records = append(records, toRecord(author))
	}

	return api.DiscoveryResponse{RunId: run.Id, Empty: run.Status == schema.RunEmpty, Authors: records}, nil
}

func (s *DiscoveryService) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	run, err := s.getRun(r)
	if err != nil {
		var cerr *codedError
		if errors.As(err, &cerr) {
			http.Error(w, err.Error(), cerr.code)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	records := make([]api.AuthorRecord, 0, len(run.Authors))
	for _, author := range run.Authors {
		records = append(records, toRecord(author))
	}
	export.SortByCitations(records)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=researchers-%s.csv", run.Id))

	if err := export.WriteCSV(w, records, nil); err != nil {
		slog.Error("error writing csv export", "run_id", run.Id, "error", err)
	}
}
