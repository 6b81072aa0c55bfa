package models

import "testing"

func TestPasswordHashRoundTrip(t *testing.T) {
	u := User{Email: "a@b.c"}
	if err := u.SetPassword("abc123"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if u.PasswordHash == "abc123" {
		t.Fatalf("password stored in clear")
	}
	if !u.CheckPassword("abc123") {
		t.Fatalf("correct password rejected")
	}
	if u.CheckPassword("wrong1") {
		t.Fatalf("wrong password accepted")
	}
}

func TestPublicViewShape(t *testing.T) {
	u := User{FirstName: "Nuria", LastName: "Vega", NameFile: "avatar.png", Role: Role{Role: RoleAdmin}}
	v := u.PublicView()
	if v["firstName"] != "Nuria" || v["lastName"] != "Vega" || v["nameFile"] != "avatar.png" {
		t.Fatalf("unexpected view %v", v)
	}
	role, ok := v["role"].(map[string]any)
	if !ok || role["role"] != RoleAdmin {
		t.Fatalf("nested role block wrong: %v", v["role"])
	}
	if !u.IsAdmin() {
		t.Fatalf("IsAdmin should follow the role name")
	}
}
