package exchange

import (
	"bytes"
	"errors"
	"testing"

	"github.com/TheusHen/hexstream/hexstream"
)

func agree(t *testing.T, pskA, pskB string, bits int) (Keys, Keys) {
	t.Helper()
	alice, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	bob, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	sa, err := SharedSecret(alice.Private, bob.Public)
	if err != nil {
		t.Fatalf("SharedSecret alice: %v", err)
	}
	sb, err := SharedSecret(bob.Private, alice.Public)
	if err != nil {
		t.Fatalf("SharedSecret bob: %v", err)
	}
	if !bytes.Equal(sa, sb) {
		t.Fatalf("shared secrets do not match")
	}
	ka, err := DeriveKeys(sa, pskA, alice.Public, bob.Public, bits)
	if err != nil {
		t.Fatalf("DeriveKeys alice: %v", err)
	}
	kb, err := DeriveKeys(sb, pskB, alice.Public, bob.Public, bits)
	if err != nil {
		t.Fatalf("DeriveKeys bob: %v", err)
	}
	return ka, kb
}

func TestDeriveKeysAgree(t *testing.T) {
	for _, bits := range []int{128, 192, 256} {
		ka, kb := agree(t, "passphrase", "passphrase", bits)
		if ka != kb {
			t.Fatalf("%d bits: keys differ", bits)
		}
		if len(ka.Initiator) != bits/8 || len(ka.Responder) != bits/8 {
			t.Fatalf("%d bits: unexpected key lengths", bits)
		}
		if ka.Initiator == ka.Responder {
			t.Fatalf("%d bits: direction keys should differ", bits)
		}
		if ka.Send(true) != kb.Recv(false) || ka.Recv(true) != kb.Send(false) {
			t.Fatalf("%d bits: direction mapping broken", bits)
		}
	}
}

func TestDeriveKeysPassphraseMismatch(t *testing.T) {
	ka, kb := agree(t, "one", "two", 256)
	if ka.Initiator == kb.Initiator {
		t.Fatalf("different passphrases must give different keys")
	}
}

func TestKeysDriveCipher(t *testing.T) {
	ka, kb := agree(t, "", "", 256)
	send, err := hexstream.New(ka.Send(true), hexstream.Config{Bits: ka.Bits})
	if err != nil {
		t.Fatalf("New send: %v", err)
	}
	recv, err := hexstream.New(kb.Recv(false), hexstream.Config{Bits: kb.Bits})
	if err != nil {
		t.Fatalf("New recv: %v", err)
	}
	pt, err := recv.Open(send.Seal("agreed"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if pt != "agreed" {
		t.Fatalf("Open: got %q", pt)
	}
}

func TestSharedSecretRejectsZero(t *testing.T) {
	kp, _ := Generate()
	if _, err := SharedSecret(kp.Private, [32]byte{}); !errors.Is(err, ErrInvalidPublicKey) {
		t.Fatalf("expected ErrInvalidPublicKey, got %v", err)
	}
}

func TestDeriveKeysInvalidBits(t *testing.T) {
	if _, err := DeriveKeys(make([]byte, 32), "", [32]byte{1}, [32]byte{2}, 100); !errors.Is(err, hexstream.ErrInvalidKeyLength) {
		t.Fatalf("expected ErrInvalidKeyLength, got %v", err)
	}
}
