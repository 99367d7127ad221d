// Package prompts はリモートの画像生成モデルへ渡す指示文を組み立てます。
package prompts

import (
	"strings"

	"github.com/shouni/go-sprite-kit/pkg/domain"
)

// 指示文の各節です。節の並び順（基本 → モード → 背景分離 → 比率維持 → 追加指示）は
// モデルの出力品質に直結するため、変更してはいけません。
const (
	basePrompt = "From the provided image, identify the main cartoon character. " +
		"Create a new image that serves as a character sprite sheet for animation, resolution at 4K. " +
		"The new image MUST have a transparent background. " +
		"Lay out all the individual parts of the character separately on this transparent background. " +
		"The parts should not overlap. " +
		"The output must be a single PNG image with a transparent background."

	basicPartsPrompt = "The parts to separate are: head, torso, left arm, right arm, left leg, and right leg."

	detailedPartsPrompt = "The parts to separate should be very detailed: hair, eyes, mouth, head, torso, " +
		"individual clothing items, accessories, left arm, right arm, left leg, and right leg."

	isolateBackgroundPrompt = "The character must be fully isolated from its original background."

	preserveProportionsPrompt = "All separated parts must maintain their original proportions relative to each other."

	userInstructionsPrefix = "Additional user instructions: "

	// 追加指示が空のときに使うプレースホルダーです。
	noInstructionsPlaceholder = "None"
)

// SpritePrompt は分解指示文を構築する契約です。
type SpritePrompt interface {
	Build(req domain.SeparationRequest) string
}

// SeparationPromptBuilder は設定値から決定論的に指示文を合成します。
// 同じ設定からは常に同じ文字列が得られます。
type SeparationPromptBuilder struct{}

// NewSeparationPromptBuilder は新しいビルダーを生成します。
func NewSeparationPromptBuilder() *SeparationPromptBuilder {
	return &SeparationPromptBuilder{}
}

// Build はリクエスト設定を1本の指示文に変換します。
func (b *SeparationPromptBuilder) Build(req domain.SeparationRequest) string {
	clauses := make([]string, 0, 5)
	clauses = append(clauses, basePrompt)

	if req.Mode == domain.ModeDetailed {
		clauses = append(clauses, detailedPartsPrompt)
	} else {
		clauses = append(clauses, basicPartsPrompt)
	}

	if req.IsolateBackground {
		clauses = append(clauses, isolateBackgroundPrompt)
	}
	if req.PreserveProportions {
		clauses = append(clauses, preserveProportionsPrompt)
	}

	freeText := strings.TrimSpace(req.FreeText)
	if freeText == "" {
		freeText = noInstructionsPlaceholder
	}
	clauses = append(clauses, userInstructionsPrefix+freeText)

	return strings.Join(clauses, " ")
}
