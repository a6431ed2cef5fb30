// Package topicmgr keeps the catalogue of pub/sub topics the application
// publishes on. Topics are defined once, validated on registration and can
// be listed by module, which is what `properly-cli topics` prints.
//
// A module defines its topics next to the code that publishes them:
//
//	var NewMessage = topicmgr.DefineModule(topicmgr.TopicConfig{
//		Name:        "chat-app.new-message",
//		Module:      "messenger",
//		Description: "A chat message was persisted",
//		Example:     `{"id":"message:abc","senderId":"user:1","receiverId":"user:2","content":"hi"}`,
//	})
//
// and registers them with a Manager at startup:
//
//	mgr := topicmgr.NewManager()
//	if err := mgr.Register(NewMessage); err != nil {
//		return err
//	}
package topicmgr
