package api

import "context"

const bridgeApi = "bridge"

type Post struct {
	PostId      int64  `json:"post_id"`
	Author      string `json:"author"`
	Permlink    string `json:"permlink"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	Created     string `json:"created"`
	Children    int    `json:"children"`
	Community   string `json:"community,omitempty"`
	PayoutValue string `json:"payout,omitempty"`
}

type Community struct {
	Id          int64  `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	About       string `json:"about"`
	Lang        string `json:"lang"`
	IsNsfw      bool   `json:"is_nsfw"`
	Subscribers int64  `json:"subscribers"`
	CreatedAt   string `json:"created_at"`
}

type Notification struct {
	Id    int64  `json:"id"`
	Type  string `json:"type"`
	Score int    `json:"score"`
	Date  string `json:"date"`
	Msg   string `json:"msg"`
	Url   string `json:"url"`
}

// RankedPostsQuery selects a feed such as trending or created, optionally within a tag
// or community. Paging continues after StartAuthor/StartPermlink.
type RankedPostsQuery struct {
	Sort          string `json:"sort"`
	Tag           string `json:"tag,omitempty"`
	Observer      string `json:"observer,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	StartAuthor   string `json:"start_author,omitempty"`
	StartPermlink string `json:"start_permlink,omitempty"`
}

// AccountPostsQuery selects posts related to one account; Sort is one of blog, feed,
// posts, comments, replies or payout.
type AccountPostsQuery struct {
	Sort          string `json:"sort"`
	Account       string `json:"account"`
	Observer      string `json:"observer,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	StartAuthor   string `json:"start_author,omitempty"`
	StartPermlink string `json:"start_permlink,omitempty"`
}

type CommunitiesQuery struct {
	Last     string `json:"last,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Query    string `json:"query,omitempty"`
	Sort     string `json:"sort,omitempty"`
	Observer string `json:"observer,omitempty"`
}

// Hivemind wraps the bridge api served by hivemind nodes. Nodes without hivemind answer
// with an api error and are deprioritized for bridge only.
type Hivemind struct {
	caller Caller
}

func NewHivemind(caller Caller) *Hivemind {
	return &Hivemind{caller: caller}
}

func (h *Hivemind) Call(ctx context.Context, method string, params interface{}, out interface{}) error {
	return h.caller.CallInto(ctx, bridgeApi, method, params, out)
}

func (h *Hivemind) GetRankedPosts(ctx context.Context, q RankedPostsQuery) ([]Post, error) {
	var out []Post
	if err := h.Call(ctx, "get_ranked_posts", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *Hivemind) GetAccountPosts(ctx context.Context, q AccountPostsQuery) ([]Post, error) {
	var out []Post
	if err := h.Call(ctx, "get_account_posts", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCommunity returns nil without error when the community does not exist.
func (h *Hivemind) GetCommunity(ctx context.Context, name, observer string) (*Community, error) {
	params := map[string]interface{}{"name": name}
	if observer != "" {
		params["observer"] = observer
	}
	var out *Community
	if err := h.Call(ctx, "get_community", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *Hivemind) ListCommunities(ctx context.Context, q CommunitiesQuery) ([]Community, error) {
	var out []Community
	if err := h.Call(ctx, "list_communities", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AccountNotifications pages backwards from lastId; 0 starts at the newest.
func (h *Hivemind) AccountNotifications(ctx context.Context, account string, limit int, lastId int64) ([]Notification, error) {
	params := map[string]interface{}{"account": account}
	if limit > 0 {
		params["limit"] = limit
	}
	if lastId > 0 {
		params["last_id"] = lastId
	}
	var out []Notification
	if err := h.Call(ctx, "account_notifications", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}
