// Package gemini содержит адаптер к Gemini generateContent с поиском Google.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"repairguide/internal/platform/httpclient"
	"repairguide/internal/shared"
)

// Executor выполняет один логический запрос с повторами.
type Executor interface {
	Execute(ctx context.Context, req httpclient.Request, maxAttempts int) (*httpclient.Response, error)
}

// Prompt описывает однократный запрос генерации.
type Prompt struct {
	Query             string
	SystemInstruction string
	// GoogleSearch включает заземление через поиск Google.
	GoogleSearch bool
}

// Source это ссылка-источник, у которой есть и URI, и заголовок.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Result содержит текст первого кандидата и его источники.
type Result struct {
	Text    string
	Sources []Source
}

// Client вызывает метод generateContent.
type Client struct {
	exec        Executor
	baseURL     string
	model       string
	apiKey      string
	maxAttempts int
}

// NewClient создаёт клиент Gemini.
func NewClient(exec Executor, baseURL, model, apiKey string, maxAttempts int) *Client {
	return &Client{
		exec:        exec,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		apiKey:      apiKey,
		maxAttempts: maxAttempts,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type tool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type generateRequest struct {
	Contents          []content `json:"contents"`
	Tools             []tool    `json:"tools,omitempty"`
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		GroundingMetadata *struct {
			GroundingAttributions []struct {
				Web *struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingAttributions"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

// Endpoint возвращает URL generateContent вместе с параметром key.
func (c *Client) Endpoint() string {
	u := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	return u + "?" + url.Values{"key": []string{c.apiKey}}.Encode()
}

// Generate отправляет запрос и разбирает первого кандидата.
// Возвращает shared.ErrParse, если тело не разбирается, и shared.ErrNoContent,
// если у первого кандидата нет текста.
func (c *Client) Generate(ctx context.Context, p Prompt) (Result, error) {
	payload := generateRequest{
		Contents: []content{{Parts: []part{{Text: p.Query}}}},
	}
	if p.GoogleSearch {
		payload.Tools = []tool{{GoogleSearch: &struct{}{}}}
	}
	if p.SystemInstruction != "" {
		payload.SystemInstruction = &content{Parts: []part{{Text: p.SystemInstruction}}}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, shared.MarkKind(err, shared.KindInternal)
	}

	req := httpclient.NewRequest(http.MethodPost, c.Endpoint(),
		http.Header{"Content-Type": []string{"application/json"}}, body)
	resp, err := c.exec.Execute(ctx, req, c.maxAttempts)
	if err != nil {
		return Result{}, shared.Wrap(err, "gemini")
	}
	return parse(resp.Body)
}

func parse(body []byte) (Result, error) {
	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Result{}, shared.Wrap(shared.MarkKind(err, shared.KindParse), "gemini")
	}
	if len(out.Candidates) == 0 {
		return Result{}, shared.Wrap(shared.ErrNoContent, "gemini: no candidates")
	}
	cand := out.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 || cand.Content.Parts[0].Text == "" {
		return Result{}, shared.Wrap(shared.ErrNoContent, "gemini: empty candidate")
	}

	res := Result{Text: cand.Content.Parts[0].Text}
	if gm := cand.GroundingMetadata; gm != nil {
		for _, a := range gm.GroundingAttributions {
			if a.Web == nil || a.Web.URI == "" || a.Web.Title == "" {
				continue
			}
			res.Sources = append(res.Sources, Source{URI: a.Web.URI, Title: a.Web.Title})
		}
	}
	return res, nil
}
