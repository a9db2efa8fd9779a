package ingestion

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-recommender/internal/fetch"
)

func TestNormalizeRules_Extraction(t *testing.T) {
	text := "회사명: 네이버 클라우드\n[서울] 백엔드 서버 개발자 모집\n경력 3~5년, Go, Kafka, Docker 우대"

	job := normalizeRules(text)
	assert.Equal(t, "백엔드 서버 개발자", job.Title)
	assert.Equal(t, "네이버 클라우드", job.Company)
	assert.Equal(t, "서울", job.Region)
	require.NotNil(t, job.YearsMin)
	require.NotNil(t, job.YearsMax)
	assert.Equal(t, 3.0, *job.YearsMin)
	assert.Equal(t, 5.0, *job.YearsMax)
	assert.Equal(t, []string{"Go", "Kafka", "Docker"}, job.Skills)
	assert.Equal(t, text, job.Description)
}

func TestNormalizeRules_Defaults(t *testing.T) {
	job := normalizeRules("함께 성장할 동료를 찾습니다")
	assert.Equal(t, "채용 공고", job.Title)
	assert.Equal(t, "회사명 미상", job.Company)
	assert.Empty(t, job.Region)
	assert.Nil(t, job.YearsMin)
	assert.Nil(t, job.Skills)
}

func TestNormalizeRules_AtLeastYears(t *testing.T) {
	job := normalizeRules("경력 7년 이상")
	require.NotNil(t, job.YearsMin)
	assert.Equal(t, 7.0, *job.YearsMin)
	assert.Nil(t, job.YearsMax)
}

func TestNormalizeRules_Truncation(t *testing.T) {
	text := strings.Repeat("가", 9000)
	job := normalizeRules(text)
	assert.Equal(t, 500, utf8.RuneCountInString(job.Description))
}

func TestLocalNormalizer_Text(t *testing.T) {
	n := NewLocalNormalizer(fetch.PageOptions{})

	_, err := n.NormalizeText(context.Background(), "   ")
	assert.True(t, errors.Is(err, ErrEmptyInput))

	job, err := n.NormalizeText(context.Background(), "데이터 플랫폼 개발자")
	require.NoError(t, err)
	assert.Equal(t, "데이터 플랫폼 개발자", job.Title)
}

func TestLocalNormalizer_File(t *testing.T) {
	n := NewLocalNormalizer(fetch.PageOptions{})
	ctx := context.Background()

	job, err := n.NormalizeFile(ctx, "posting.txt", []byte("회사명: 토스\n프론트엔드 개발자"))
	require.NoError(t, err)
	assert.Equal(t, "토스", job.Company)
	assert.Equal(t, "프론트엔드 개발자", job.Title)

	job, err = n.NormalizeFile(ctx, "posting.html", []byte(`<html><head><title>데이터 엔지니어 개발자</title></head><body><main>Spark</main></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "데이터 엔지니어 개발자", job.Title)
	assert.Equal(t, []string{"Spark"}, job.Skills)

	_, err = n.NormalizeFile(ctx, "resume.pdf", []byte("%PDF-1.7"))
	assert.True(t, errors.Is(err, ErrUnsupportedType))

	_, err = n.NormalizeFile(ctx, "empty.txt", []byte("  \n "))
	assert.True(t, errors.Is(err, ErrEmptyInput))
}

func TestLocalNormalizer_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>회사명: 당근 | 백엔드 개발자</title></head><body><main>Kotlin, Spring</main></body></html>`))
	}))
	defer srv.Close()

	n := NewLocalNormalizer(fetch.PageOptions{})
	job, err := n.NormalizeURL(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "백엔드 개발자", job.Title)
	assert.Equal(t, []string{"Kotlin", "Spring"}, job.Skills)
}

func TestCleanText(t *testing.T) {
	input := "# 제목\r\n\r\n\r\n\r\n  - 항목   하나\n일반    문장\t\t끝\n\n"
	assert.Equal(t, "# 제목\n\n  - 항목 하나\n일반 문장 끝", CleanText(input))
	assert.Equal(t, "", CleanText(""))
	assert.Equal(t, "", CleanText(" \n\t "))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "가나", truncateRunes("가나다", 2))
	assert.Equal(t, "가나다", truncateRunes("가나다", 5))
	assert.Equal(t, "", truncateRunes("가나다", 0))
}
