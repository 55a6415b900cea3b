package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"referent/internal/domain/entity"
	"referent/internal/domain/repository"
)

const (
	// MinContentLength is the shortest body, in characters, worth sending
	// to the generation service.
	MinContentLength = 50

	// MaxContentLength caps the body sent to the generation service.
	MaxContentLength = 100000

	DefaultGenerationTimeout = 120 * time.Second

	truncationMarker = "\n\n[... контент обрезан из-за большой длины ...]"
)

// ArticleService runs the fetch, extract, generate pipeline for one URL.
// It holds no per-request state and is safe for concurrent use.
type ArticleService struct {
	articles  repository.ArticleRepository
	generator repository.GeneratorRepository
	prompts   *PromptCatalog
	timeout   time.Duration
	logger    zerolog.Logger
}

// Option configures an ArticleService.
type Option func(*ArticleService)

// WithGenerationTimeout bounds each generation call.
func WithGenerationTimeout(d time.Duration) Option {
	return func(s *ArticleService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *ArticleService) {
		s.logger = logger
	}
}

func NewArticleService(
	articles repository.ArticleRepository,
	generator repository.GeneratorRepository,
	prompts *PromptCatalog,
	opts ...Option,
) *ArticleService {
	s := &ArticleService{
		articles:  articles,
		generator: generator,
		prompts:   prompts,
		timeout:   DefaultGenerationTimeout,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Parse fetches url and returns the extracted article with sentinels for
// missing fields.
func (s *ArticleService) Parse(ctx context.Context, url string) (*entity.Article, error) {
	log := s.loggerFrom(ctx).With().Str("op", "parse").Str("url", url).Logger()

	if err := validateURL(url); err != nil {
		return nil, s.fail(log, err)
	}

	article, err := s.fetch(ctx, url)
	if err != nil {
		return nil, s.fail(log, err)
	}

	log.Debug().Int("content_length", article.ContentLength()).Msg("article parsed")
	return article, nil
}

// Process turns the article at req.URL into the requested transformation.
func (s *ArticleService) Process(ctx context.Context, req entity.TransformationRequest) (*entity.GenerationResult, error) {
	log := s.loggerFrom(ctx).With().Str("op", "process").Str("url", req.URL).Str("action", string(req.ActionKind)).Logger()

	if err := validateURL(req.URL); err != nil {
		return nil, s.fail(log, err)
	}
	if _, err := entity.ParseActionKind(string(req.ActionKind)); err != nil {
		return nil, s.fail(log, entity.Errorf(entity.ErrInvalidInput,
			"actionKind must be one of: %s", entity.ActionKindNames()))
	}

	article, err := s.fetch(ctx, req.URL)
	if err != nil {
		return nil, s.fail(log, err)
	}

	content, err := s.prepareContent(article)
	if err != nil {
		return nil, s.fail(log, err)
	}
	if err := s.requireCredential(); err != nil {
		return nil, s.fail(log, err)
	}

	prompt, perr := s.prompts.Build(req.ActionKind, article.Title, content, req.URL)
	if perr != nil {
		return nil, s.fail(log, &entity.Error{Kind: entity.ErrUnknown, Message: "не удалось подготовить запрос к AI", Err: perr})
	}

	result, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, s.fail(log, err)
	}

	if s.prompts.AddsSourceLink(req.ActionKind) {
		result = withSourceLink(result, req.URL)
	}

	log.Info().Int("result_length", utf8.RuneCountInString(result)).Msg("article processed")
	return entity.NewGenerationResult(req.ActionKind, article, result), nil
}

// Translate translates the article at url into Russian.
func (s *ArticleService) Translate(ctx context.Context, url string) (*entity.TranslationResult, error) {
	log := s.loggerFrom(ctx).With().Str("op", "translate").Str("url", url).Logger()

	if err := validateURL(url); err != nil {
		return nil, s.fail(log, err)
	}

	article, err := s.fetch(ctx, url)
	if err != nil {
		return nil, s.fail(log, err)
	}

	content, err := s.prepareContent(article)
	if err != nil {
		return nil, s.fail(log, err)
	}
	if err := s.requireCredential(); err != nil {
		return nil, s.fail(log, err)
	}

	prompt, perr := s.prompts.Translation(article.Title, content)
	if perr != nil {
		return nil, s.fail(log, &entity.Error{Kind: entity.ErrUnknown, Message: "не удалось подготовить запрос к AI", Err: perr})
	}

	translation, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, s.fail(log, err)
	}

	log.Info().Int("result_length", utf8.RuneCountInString(translation)).Msg("article translated")
	return &entity.TranslationResult{Original: *article, Translation: translation}, nil
}

// loggerFrom prefers a logger carried by ctx, such as one holding a
// request id, over the service logger.
func (s *ArticleService) loggerFrom(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return s.logger
}

func validateURL(url string) *entity.Error {
	if strings.TrimSpace(url) == "" {
		return entity.Errorf(entity.ErrInvalidInput, "URL is required")
	}
	return nil
}

func (s *ArticleService) fetch(ctx context.Context, url string) (*entity.Article, *entity.Error) {
	article, err := s.articles.FetchArticle(ctx, url)
	if err == nil {
		return article, nil
	}

	e := &entity.Error{
		Kind:    entity.ErrUpstreamFetchFailed,
		Message: fmt.Sprintf("не удалось загрузить статью: %v", err),
		Err:     err,
	}
	var fetchErr *repository.FetchError
	if errors.As(err, &fetchErr) {
		e.UpstreamStatus = fetchErr.StatusCode
		e.Message = fmt.Sprintf("не удалось загрузить статью: %s", fetchErr.Status)
	}
	return nil, e
}

// prepareContent checks the extracted body and returns the text to send
// downstream, cut to MaxContentLength.
func (s *ArticleService) prepareContent(article *entity.Article) (string, *entity.Error) {
	if !article.HasContent() {
		return "", entity.Errorf(entity.ErrContentUnextractable,
			"Не удалось извлечь контент статьи. Возможно, статья недоступна или имеет нестандартную структуру.")
	}

	if n := article.ContentLength(); n < MinContentLength {
		e := entity.Errorf(entity.ErrContentTooShort,
			"Контент статьи слишком короткий (%d символов, минимум %d). Возможно, это не статья или парсинг не удался.",
			n, MinContentLength)
		e.Threshold = MinContentLength
		e.Length = n
		return "", e
	}

	return truncateContent(article.Content), nil
}

func truncateContent(content string) string {
	if utf8.RuneCountInString(content) <= MaxContentLength {
		return content
	}
	return string([]rune(content)[:MaxContentLength]) + truncationMarker
}

func (s *ArticleService) requireCredential() *entity.Error {
	if s.generator == nil || !s.generator.IsEnabled() {
		return entity.Errorf(entity.ErrMissingCredential, "ключ API сервиса генерации не настроен (OPENROUTER_API_KEY)")
	}
	return nil
}

type generation struct {
	text string
	err  error
}

// generate calls the generation service under the configured deadline. The
// deadline holds even when the generator ignores its context: a late answer
// is discarded.
func (s *ArticleService) generate(ctx context.Context, prompt entity.PromptSpec) (string, *entity.Error) {
	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan generation, 1)
	go func() {
		text, err := s.generator.Generate(genCtx, prompt)
		done <- generation{text: text, err: err}
	}()

	var text string
	var err error
	select {
	case g := <-done:
		text, err = g.text, g.err
	case <-genCtx.Done():
		err = genCtx.Err()
	}

	if err != nil {
		if errors.Is(genCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			return "", &entity.Error{
				Kind:    entity.ErrGenerationTimeout,
				Message: fmt.Sprintf("Превышено время ожидания ответа от AI (более %s). Статья может быть слишком длинной.", s.timeout),
				Err:     err,
			}
		}
		return "", generationError(err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", entity.Errorf(entity.ErrEmptyGenerationResult,
			"AI вернул пустой ответ. Попробуйте еще раз или выберите другую статью.")
	}
	return text, nil
}

func generationError(err error) *entity.Error {
	if errors.Is(err, repository.ErrNoCompletion) {
		return &entity.Error{Kind: entity.ErrInvalidUpstreamResponse, Message: "Неожиданный формат ответа от AI", Err: err}
	}

	var genErr *repository.GenerationError
	if !errors.As(err, &genErr) {
		return &entity.Error{Kind: entity.ErrUnknown, Message: err.Error(), Err: err}
	}

	e := &entity.Error{UpstreamStatus: genErr.StatusCode, Err: err}
	switch genErr.StatusCode {
	case http.StatusUnauthorized:
		e.Kind = entity.ErrInvalidCredential
		e.Message = "Неверный API ключ сервиса генерации. Проверьте OPENROUTER_API_KEY."
	case http.StatusTooManyRequests:
		e.Kind = entity.ErrRateLimited
		e.Message = "Превышен лимит запросов к сервису генерации. Попробуйте позже."
	case http.StatusServiceUnavailable:
		e.Kind = entity.ErrUpstreamUnavailable
		e.Message = "Сервис генерации временно недоступен. Попробуйте позже."
	default:
		e.Kind = entity.ErrUpstreamError
		e.Message = fmt.Sprintf("Ошибка сервиса генерации: %s", http.StatusText(genErr.StatusCode))
		if genErr.Message != "" {
			e.Message = fmt.Sprintf("Ошибка сервиса генерации: %s", genErr.Message)
		}
	}
	return e
}

// fail logs err with the request context and returns it as an error value.
func (s *ArticleService) fail(log zerolog.Logger, err *entity.Error) error {
	ev := log.Warn()
	if serverFault(err.Kind) {
		ev = log.Error()
	}
	ev.Err(err.Err).
		Str("kind", string(err.Kind)).
		Int("upstream_status", err.UpstreamStatus).
		Msg(err.Message)
	return err
}

// serverFault reports whether kind is the service's fault rather than the
// caller's input.
func serverFault(kind entity.ErrorKind) bool {
	switch kind {
	case entity.ErrInvalidInput, entity.ErrUpstreamFetchFailed,
		entity.ErrContentUnextractable, entity.ErrContentTooShort:
		return false
	default:
		return true
	}
}
