package model

import "testing"

func TestDisplayNameFor(t *testing.T) {
	group := &Conversation{
		Discriminator: DiscriminatorGroup,
		GroupName:     "hikers",
		Users: []UserConversationRelation{
			{UserID: "a", User: User{ID: "a", NickName: "Alice"}},
			{UserID: "b", User: User{ID: "b", NickName: "Bob"}},
		},
	}
	private := &Conversation{
		Discriminator: DiscriminatorPrivate,
		Users: []UserConversationRelation{
			{UserID: "a", User: User{ID: "a", NickName: "Alice"}},
			{UserID: "b", User: User{ID: "b", NickName: "Bob"}},
		},
	}

	tests := []struct {
		name   string
		conv   *Conversation
		viewer string
		want   string
	}{
		{"group shows its name", group, "a", "hikers"},
		{"private shows the other side", private, "a", "Bob"},
		{"private from the other view", private, "b", "Alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.conv.DisplayNameFor(tt.viewer); got != tt.want {
				t.Fatalf("DisplayNameFor(%s) = %q, want %q", tt.viewer, got, tt.want)
			}
		})
	}
}

func TestMentions(t *testing.T) {
	m := &Message{Ats: []At{{TargetUserID: "b"}}}
	if !m.Mentions("b") {
		t.Fatal("expected mention of b")
	}
	if m.Mentions("a") {
		t.Fatal("unexpected mention of a")
	}
}
