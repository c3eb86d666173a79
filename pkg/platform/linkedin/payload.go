package linkedin

import "github.com/go-training/social-relay/pkg/core"

// UGC post field values.
const (
	lifecycleStatePublished = "PUBLISHED"
	mediaCategoryArticle    = "ARTICLE"
	mediaStatusReady        = "READY"
	visibilityConnections   = "CONNECTIONS"

	shareContentKey     = "com.linkedin.ugc.ShareContent"
	memberVisibilityKey = "com.linkedin.ugc.MemberNetworkVisibility"
	personURNPrefix     = "urn:li:person:"
)

// PersonURN returns the author URN for a member id.
func PersonURN(memberID string) string {
	return personURNPrefix + memberID
}

// Text is LinkedIn's attributed text wrapper.
type Text struct {
	Text string `json:"text"`
}

// Media is one attached article.
type Media struct {
	Status      string `json:"status"`
	Description Text   `json:"description"`
	OriginalURL string `json:"originalUrl"`
	Title       Text   `json:"title"`
}

// ShareContent is the body of a member share.
type ShareContent struct {
	ShareCommentary    Text    `json:"shareCommentary"`
	ShareMediaCategory string  `json:"shareMediaCategory"`
	Media              []Media `json:"media"`
}

// SharePost is the ugcPosts request body.
type SharePost struct {
	Author          string                  `json:"author"`
	LifecycleState  string                  `json:"lifecycleState"`
	SpecificContent map[string]ShareContent `json:"specificContent"`
	Visibility      map[string]string       `json:"visibility"`
}

// NewSharePost builds an article share for author. Missing description and
// URL are sent as empty strings.
func NewSharePost(author string, req core.PublishRequest) SharePost {
	return SharePost{
		Author:         author,
		LifecycleState: lifecycleStatePublished,
		SpecificContent: map[string]ShareContent{
			shareContentKey: {
				ShareCommentary:    Text{Text: req.Title},
				ShareMediaCategory: mediaCategoryArticle,
				Media: []Media{{
					Status:      mediaStatusReady,
					Description: Text{Text: req.Description},
					OriginalURL: req.URL,
					Title:       Text{Text: req.Title},
				}},
			},
		},
		Visibility: map[string]string{
			memberVisibilityKey: visibilityConnections,
		},
	}
}
