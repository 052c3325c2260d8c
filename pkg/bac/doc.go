/*
Package bac implements the cryptography of ICAO 9303 Basic Access Control and
the secure messaging channel it establishes.

# Handshake

BAC is a mutual authentication with 3DES keys derived from the MRZ information
(document number, birth date, expiry date and their check digits):

 1. K_seed = SHA-1(MRZ information)[0:16], K_enc and K_mac are derived from it.
 2. The terminal reads an 8-byte challenge RND.ICC from the chip (GET CHALLENGE).
 3. Step1: the terminal draws RND.IFD and K.IFD, encrypts
    S = RND.IFD || RND.ICC || K.IFD with K_enc and MACs the cryptogram with K_mac.
    The 40-byte result is sent with MUTUAL AUTHENTICATE.
 4. Step2: the chip answers with its own 40-byte cryptogram. The terminal checks
    the MAC, decrypts R = RND.ICC || RND.IFD || K.ICC, checks both nonces and
    derives the session keys from K.IFD xor K.ICC.

# Secure Messaging

Once established, every APDU is protected (ICAO 9303 part 11, section 9.8):
command data is 3DES encrypted into DO'87', the expected length goes into
DO'97', and DO'8E' carries a retail MAC over the send sequence counter (SSC),
the masked header and those objects. Responses carry DO'87', the status word
in DO'99' and their own DO'8E'.

The Engine holds that state. It is not safe for concurrent use: a chip session
is strictly sequential.
*/
package bac
