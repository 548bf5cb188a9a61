package mail

import (
	"bytes"
	"context"
	"html/template"
	"time"

	"github.com/bytedance/sonic"

	"chopchop-server-go/internal/platform/errors"
	"chopchop-server-go/internal/platform/logging"
	"chopchop-server-go/internal/platform/storage"
)

// digestTemplate renders the kitchen digest body. html/template escapes the
// model-generated recipe titles.
var digestTemplate = template.Must(template.New("digest").Parse(`<html>
<body style="font-family: sans-serif; color: #333;">
  <h2>Your ChopChop kitchen digest</h2>
  <p>Here is what your kitchen looks like as of {{.Date}}.</p>

  {{if .Items}}
  <h3>Grocery items</h3>
  <ul>
    {{range .Items}}<li>{{.}}</li>
    {{end}}
  </ul>
  {{else}}
  <p>No grocery items saved yet.</p>
  {{end}}

  {{if .Recipes}}
  <h3>Recently suggested recipes</h3>
  <ul>
    {{range .Recipes}}<li>{{.}}</li>
    {{end}}
  </ul>
  {{end}}

  <p style="color: #888; font-size: 12px;">Sent by ChopChop.</p>
</body>
</html>`))

type digestData struct {
	Date    string
	Items   []string
	Recipes []string
}

// DigestService assembles and sends per-user digest emails.
type DigestService struct {
	userData *storage.UserDataRepository
	recipes  *storage.RecentRecipeRepository
	sender   Sender
	logger   *logging.Logger
}

func NewDigestService(
	userData *storage.UserDataRepository,
	recipes *storage.RecentRecipeRepository,
	sender Sender,
	logger *logging.Logger,
) *DigestService {
	return &DigestService{
		userData: userData,
		recipes:  recipes,
		sender:   sender,
		logger:   logger,
	}
}

// Send builds the digest for email from stored data and delivers it.
func (s *DigestService) Send(ctx context.Context, email string) error {
	const op = "mail.Digest"

	body, err := s.render(ctx, email)
	if err != nil {
		return err
	}

	if err := s.sender.Send(email, "Your ChopChop kitchen digest", body); err != nil {
		return errors.Wrap(errors.KindMail, op, "send digest", err)
	}
	return nil
}

func (s *DigestService) render(ctx context.Context, email string) (string, error) {
	const op = "mail.Digest"

	data := digestData{Date: time.Now().Format("January 2, 2006")}

	record, err := s.userData.Find(ctx, email)
	if err != nil {
		return "", err
	}
	if record != nil {
		data.Items = itemNames(record.Items)
	}

	recent, err := s.recipes.List(ctx, email)
	if err != nil {
		return "", err
	}
	for _, entry := range recent {
		if title := recipeTitle(entry.Payload); title != "" {
			data.Recipes = append(data.Recipes, title)
		}
	}

	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, data); err != nil {
		return "", errors.Wrap(errors.KindMail, op, "render digest", err)
	}
	return buf.String(), nil
}

// itemNames flattens the stored items document into display strings. Items
// may be plain strings or objects with a name field.
func itemNames(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}

	var asStrings []string
	if err := sonic.Unmarshal(raw, &asStrings); err == nil {
		return asStrings
	}

	var asObjects []map[string]interface{}
	if err := sonic.Unmarshal(raw, &asObjects); err != nil {
		return nil
	}
	names := make([]string, 0, len(asObjects))
	for _, obj := range asObjects {
		if name, ok := obj["name"].(string); ok {
			names = append(names, name)
		}
	}
	return names
}

func recipeTitle(payload []byte) string {
	var recipe map[string]interface{}
	if err := sonic.Unmarshal(payload, &recipe); err != nil {
		return ""
	}
	title, _ := recipe["title"].(string)
	return title
}
