package openalex

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"scout/scout/monitoring"
	"scout/scout/request"
)

const (
	defaultBaseUrl = "https://api.openalex.org"

	institutionPageSize = 10
	workPageSize        = 50
	authorPageSize      = 25
)

// RemoteKnowledgeBase talks to the public OpenAlex API through the retrying
// request executor. BaseUrl and the executor's timing hooks are exported so
// tests can point it at a stub server.
type RemoteKnowledgeBase struct {
	BaseUrl  string
	Executor *request.Executor
}

// NewRemoteKnowledgeBase creates a client identifying itself with the given
// contact email, as required by the OpenAlex courtesy policy.
func NewRemoteKnowledgeBase(contactEmail string) *RemoteKnowledgeBase {
	client := resty.New().
		SetTimeout(30*time.Second).
		SetHeader("User-Agent", fmt.Sprintf("scout/1.0 (mailto:%s)", contactEmail)).
		SetHeader("Accept", "application/json").
		OnAfterResponse(func(c *resty.Client, res *resty.Response) error {
			monitoring.OpenalexCalls.WithLabelValues(strconv.Itoa(res.StatusCode())).Inc()
			return nil
		})

	return &RemoteKnowledgeBase{
		BaseUrl:  defaultBaseUrl,
		Executor: request.NewExecutor(client, request.DefaultPolicy()),
	}
}

func (oa *RemoteKnowledgeBase) SearchInstitutions(query string) ([]Institution, error) {
	searchUrl := fmt.Sprintf("%s/institutions?search=%s&per_page=%d", oa.BaseUrl, url.QueryEscape(query), institutionPageSize)

	var results struct {
		Results []struct {
			Id          string `json:"id"`
			DisplayName string `json:"display_name"`
		} `json:"results"`
	}

	if err := oa.Executor.GetJson(searchUrl, &results); err != nil {
		slog.Error("openalex institution search failed", "query", query, "error", err)
		return nil, fmt.Errorf("institution search failed: %w", err)
	}

	institutions := make([]Institution, 0, len(results.Results))
	for _, result := range results.Results {
		institutions = append(institutions, Institution{
			InstitutionId:   result.Id,
			InstitutionName: result.DisplayName,
		})
	}

	return institutions, nil
}

func (oa *RemoteKnowledgeBase) SearchWorks(institutionId, keyword string) ([]Work, error) {
	searchUrl := fmt.Sprintf(
		"%s/works?filter=institutions.id:%s&search=%s&per_page=%d",
		oa.BaseUrl, url.QueryEscape(institutionId), url.QueryEscape(keyword), workPageSize,
	)

	var results struct {
		Results []struct {
			Id          string `json:"id"`
			Title       string `json:"title"`
			Doi         string `json:"doi"`
			Authorships []struct {
				Author struct {
					Id          string `json:"id"`
					DisplayName string `json:"display_name"`
					Orcid       string `json:"orcid"`
				} `json:"author"`
				Institutions []struct {
					Id          string `json:"id"`
					DisplayName string `json:"display_name"`
				} `json:"institutions"`
			} `json:"authorships"`
		} `json:"results"`
	}

	if err := oa.Executor.GetJson(searchUrl, &results); err != nil {
		slog.Error("openalex works search failed", "institution_id", institutionId, "keyword", keyword, "error", err)
		return nil, fmt.Errorf("works search failed: %w", err)
	}

	works := make([]Work, 0, len(results.Results))
	for _, result := range results.Results {
		work := Work{
			WorkId: result.Id,
			Title:  result.Title,
			Doi:    result.Doi,
		}

		for _, authorship := range result.Authorships {
			entry := Authorship{
				Author: WorkAuthor{
					AuthorId:    authorship.Author.Id,
					DisplayName: authorship.Author.DisplayName,
					Orcid:       authorship.Author.Orcid,
				},
			}
			for _, institution := range authorship.Institutions {
				entry.Institutions = append(entry.Institutions, Institution{
					InstitutionId:   institution.Id,
					InstitutionName: institution.DisplayName,
				})
			}
			work.Authorships = append(work.Authorships, entry)
		}

		works = append(works, work)
	}

	return works, nil
}

func (oa *RemoteKnowledgeBase) SearchAuthors(institutionId, keyword string) ([]AuthorSummary, error) {
	searchUrl := fmt.Sprintf(
		"%s/authors?filter=last_known_institution.id:%s&search=%s&per_page=%d",
		oa.BaseUrl, url.QueryEscape(institutionId), url.QueryEscape(keyword), authorPageSize,
	)

	var results struct {
		Results []struct {
			Id                   string `json:"id"`
			DisplayName          string `json:"display_name"`
			Orcid                string `json:"orcid"`
			WorksCount           int    `json:"works_count"`
			CitedByCount         int    `json:"cited_by_count"`
			LastKnownInstitution *struct {
				DisplayName string `json:"display_name"`
				Type        string `json:"type"`
			} `json:"last_known_institution"`
		} `json:"results"`
	}

	if err := oa.Executor.GetJson(searchUrl, &results); err != nil {
		slog.Error("openalex author search failed", "institution_id", institutionId, "keyword", keyword, "error", err)
		return nil, fmt.Errorf("author search failed: %w", err)
	}

	authors := make([]AuthorSummary, 0, len(results.Results))
	for _, result := range results.Results {
		author := AuthorSummary{
			AuthorId:     result.Id,
			DisplayName:  result.DisplayName,
			Orcid:        result.Orcid,
			WorksCount:   result.WorksCount,
			CitedByCount: result.CitedByCount,
		}
		if result.LastKnownInstitution != nil {
			author.LastKnownInstitution = &KnownInstitution{
				DisplayName: result.LastKnownInstitution.DisplayName,
				Type:        result.LastKnownInstitution.Type,
			}
		}
		authors = append(authors, author)
	}

	return authors, nil
}

func (oa *RemoteKnowledgeBase) GetAuthor(authorId string) (AuthorDetails, error) {
	detailUrl := fmt.Sprintf("%s/authors/%s", oa.BaseUrl, url.PathEscape(ShortId(authorId)))

	var result struct {
		WorksCount           int `json:"works_count"`
		CitedByCount         int `json:"cited_by_count"`
		LastKnownInstitution *struct {
			DisplayName string `json:"display_name"`
			Type        string `json:"type"`
		} `json:"last_known_institution"`
	}

	if err := oa.Executor.GetJson(detailUrl, &result); err != nil {
		slog.Error("openalex author detail lookup failed", "author_id", authorId, "error", err)
		return AuthorDetails{}, fmt.Errorf("author detail lookup failed: %w", err)
	}

	details := AuthorDetails{
		WorksCount:   result.WorksCount,
		CitedByCount: result.CitedByCount,
	}
	if result.LastKnownInstitution != nil {
		details.LastKnownInstitution = &KnownInstitution{
			DisplayName: result.LastKnownInstitution.DisplayName,
			Type:        result.LastKnownInstitution.Type,
		}
	}

	return details, nil
}

// ShortId reduces an OpenAlex entity URL like "https://openalex.org/I136199984"
// to its canonical short id "I136199984". Ids already in short form pass
// through unchanged.
func ShortId(id string) string {
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		return id[idx+1:]
	}
	return id
}
