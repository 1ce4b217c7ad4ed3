package search

import (
	"context"
	"time"

	"wikibot/internal/logger"
	"wikibot/pkg"
)

// mockSearch returns canned documents when the search endpoint is not
// configured. Results are keyed by bot so each assistant still looks
// distinct during local development.
func (c *Client) mockSearch(ctx context.Context, botID string) ([]pkg.RetrievedDocument, error) {
	if c.config.MockDelay > 0 {
		select {
		case <-time.After(c.config.MockDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	docs, ok := mockDocuments[botID]
	if !ok {
		docs = mockDocuments["default"]
	}

	today := time.Now()
	out := make([]pkg.RetrievedDocument, len(docs))
	for i, doc := range docs {
		out[i] = doc
		out[i].LastModified = today.AddDate(0, 0, -(i + 1)).Format("2006-01-02")
	}

	logger.Debug().Str("bot_id", botID).Int("documents", len(out)).Msg("serving mock search results")
	return out, nil
}

var mockDocuments = map[string][]pkg.RetrievedDocument{
	"internal_wiki": {
		{
			Content:   "사내 VPN 접속 가이드. 사외에서 사내 시스템에 접근하려면 VPN 클라이언트를 설치하고 사번으로 로그인합니다. OTP 인증이 필요합니다.",
			Title:     "사내 VPN 접속 가이드",
			SourceURL: "https://wiki.example.com/pages/10001",
			DocID:     "10001",
			Score:     0.92,
		},
		{
			Content:   "연차 사용 안내. 연차는 입사일 기준으로 부여되며 인사 포털에서 신청할 수 있습니다. 반차와 반반차도 지원합니다.",
			Title:     "연차 사용 안내",
			SourceURL: "https://wiki.example.com/pages/10002",
			DocID:     "10002",
			Score:     0.87,
		},
		{
			Content:   "사내 메신저 보안 정책. 대외비 문서는 메신저로 공유할 수 없으며 문서 중앙화 시스템을 사용해야 합니다.",
			Title:     "사내 메신저 보안 정책",
			SourceURL: "https://wiki.example.com/pages/10003",
			DocID:     "10003",
			Score:     0.81,
		},
	},
	"glossary": {
		{
			Content: "MES(Manufacturing Execution System): 생산 현장의 작업 지시, 실적 수집, 품질 관리를 담당하는 생산 실행 시스템.",
			Title:   "MES",
			Score:   0.9,
		},
		{
			Content: "OEE(Overall Equipment Effectiveness): 설비 종합 효율. 가동률, 성능, 품질의 곱으로 계산한다.",
			Title:   "OEE",
			Score:   0.85,
		},
	},
	"hw_spec": {
		{
			Content: "전원부 사양: 입력 전압 DC 24V, 허용 오차 ±10%. 돌입 전류는 최대 2A를 넘지 않아야 한다.",
			Title:   "전원부 설계 사양서",
			DocID:   "HW-PWR-001",
			Page:    "12",
			Score:   0.93,
		},
		{
			Content: "통신 인터페이스: RS-485, 최대 115200bps. 종단 저항 120옴을 양 끝단에 장착한다.",
			Title:   "통신 인터페이스 사양서",
			DocID:   "HW-COM-002",
			Page:    "7",
			Score:   0.88,
		},
	},
	"quality": {
		{
			Content: "수입 검사 기준: 외관 검사는 전수, 치수 검사는 AQL 0.65 기준 샘플링으로 진행한다.",
			Title:   "수입 검사 표준",
			Score:   0.91,
		},
		{
			Content: "부적합품 처리 절차: 부적합품은 식별 표시 후 격리 구역으로 이동하고 MRB 심의를 거친다.",
			Title:   "부적합품 관리 절차서",
			Score:   0.84,
		},
	},
	"default": {
		{
			Content: "모의 검색 문서입니다. 검색 엔드포인트가 설정되지 않아 준비된 응답을 반환합니다.",
			Title:   "모의 문서 1",
			Score:   0.8,
		},
		{
			Content: "모의 검색 문서 2입니다. 실제 검색을 사용하려면 SEARCH_BASE_URL 환경 변수를 설정하세요.",
			Title:   "모의 문서 2",
			Score:   0.7,
		},
	},
}
